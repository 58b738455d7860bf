package service

import (
	"testing"

	"scorm_lms_backend/internal/repository"
	"scorm_lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInteractionService(t *testing.T) *InteractionService {
	return NewInteractionService(repository.NewInteractionRepository(newTestDB(t)))
}

func TestRecordInteraction(t *testing.T) {
	s := newInteractionService(t)

	err := s.RecordInteraction(1, &InteractionPayload{
		InteractionID:   "q_01",
		Type:            "choice",
		LearnerResponse: "b",
		CorrectResponse: "b",
		Result:          "correct",
		Score:           "1",
		Latency:         "PT1M30S",
		Timestamp:       "2026-08-20T10:15:00Z",
	})
	require.NoError(t, err)

	recs, err := s.ListInteractions(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "q_01", recs[0].InteractionID)
	require.NotNil(t, recs[0].ScoreRaw)
	assert.Equal(t, 1.0, *recs[0].ScoreRaw)
	require.NotNil(t, recs[0].LatencySeconds)
	assert.Equal(t, 90.0, *recs[0].LatencySeconds)
	require.NotNil(t, recs[0].Timestamp)
}

func TestRecordInteractionUpsertsById(t *testing.T) {
	s := newInteractionService(t)

	require.NoError(t, s.RecordInteraction(1, &InteractionPayload{InteractionID: "q_01", Result: "wrong"}))
	require.NoError(t, s.RecordInteraction(1, &InteractionPayload{InteractionID: "q_01", Result: "correct"}))

	recs, err := s.ListInteractions(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "correct", recs[0].Result)
}

func TestRecordInteractionDropsUnparseableFields(t *testing.T) {
	s := newInteractionService(t)

	// 坏字段丢弃，记录本身保留
	err := s.RecordInteraction(1, &InteractionPayload{
		InteractionID: "q_02",
		Score:         "not-a-number",
		Latency:       "yesterday",
		Timestamp:     "around noon",
	})
	require.NoError(t, err)

	recs, err := s.ListInteractions(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].ScoreRaw)
	assert.Nil(t, recs[0].LatencySeconds)
	assert.Nil(t, recs[0].Timestamp)
}

func TestRecordInteractionRequiresID(t *testing.T) {
	s := newInteractionService(t)
	err := s.RecordInteraction(1, &InteractionPayload{Result: "correct"})
	assert.ErrorIs(t, err, util.ErrInteractionPayload)
}

func TestRecordInteractionBareSecondsLatency(t *testing.T) {
	s := newInteractionService(t)
	require.NoError(t, s.RecordInteraction(1, &InteractionPayload{InteractionID: "q_03", Latency: "42.5"}))

	recs, err := s.ListInteractions(1)
	require.NoError(t, err)
	require.NotNil(t, recs[0].LatencySeconds)
	assert.Equal(t, 42.5, *recs[0].LatencySeconds)
}

func TestRecordObjective(t *testing.T) {
	s := newInteractionService(t)

	require.NoError(t, s.RecordObjective(1, &ObjectivePayload{
		ObjectiveID:      "obj_intro",
		Score:            "80",
		ScoreMax:         "100",
		CompletionStatus: "completed",
		SuccessStatus:    "passed",
	}))
	// 同一目标重复上报走更新
	require.NoError(t, s.RecordObjective(1, &ObjectivePayload{
		ObjectiveID: "obj_intro",
		Score:       "95",
	}))

	objs, err := s.InteractionRepo.ListObjectives(1)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	require.NotNil(t, objs[0].ScoreRaw)
	assert.Equal(t, 95.0, *objs[0].ScoreRaw)
}

func TestRecordCommentDefaultsSource(t *testing.T) {
	s := newInteractionService(t)

	require.NoError(t, s.RecordComment(1, &CommentPayload{Comment: "good course", Source: "martian"}))
	require.NoError(t, s.RecordComment(1, &CommentPayload{Comment: "well done", Source: "lms"}))

	comments, err := s.InteractionRepo.ListComments(1)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	sources := map[string]string{}
	for _, c := range comments {
		sources[c.Comment] = c.Source
	}
	// 未知来源归一化为 learner，lms 原样保留
	assert.Equal(t, "learner", sources["good course"])
	assert.Equal(t, "lms", sources["well done"])
}
