package service

import (
	"testing"
	"time"

	"scorm_lms_backend/internal/model"
	"scorm_lms_backend/internal/scorm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cacheSession() *scorm.Session {
	a := &model.ScormAttempt{CMIData: *model.NewCMIDocument()}
	pkg := &model.ContentPackage{Version: model.Scorm12}
	return scorm.NewSession(a, pkg, nil, nil, func(_ *model.ScormAttempt, _ *model.ContentPackage, dm scorm.DataModel) scorm.Seed {
		return scorm.Seed{Entry: dm.EntryAbInitio()}
	})
}

func TestMemorySessionCache(t *testing.T) {
	c := NewMemorySessionCache(time.Minute)
	sess := cacheSession()

	_, ok := c.Get(1)
	assert.False(t, ok)

	c.Set(1, sess)
	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Same(t, sess, got)

	c.Invalidate(1)
	_, ok = c.Get(1)
	assert.False(t, ok)
}

func TestMemorySessionCacheExpires(t *testing.T) {
	c := NewMemorySessionCache(10 * time.Millisecond)
	c.Set(1, cacheSession())

	time.Sleep(30 * time.Millisecond)
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestNoopSessionCacheAlwaysMisses(t *testing.T) {
	var c NoopSessionCache
	c.Set(1, cacheSession())
	_, ok := c.Get(1)
	assert.False(t, ok)
}
