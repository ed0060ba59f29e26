package gateway

import (
	"context"

	"github.com/hinata/core/internal/core/domain"
	"github.com/hinata/core/internal/process/pipeline"
)

// PipelineSubmitter is the narrow ObservationPipeline surface chat() needs
// to feed the question/answer pair back in (spec §4.8 step 6), kept local
// so this package doesn't depend on the pipeline's full Engine API.
type PipelineSubmitter interface {
	ProcessBatch(ctx context.Context, req pipeline.BatchRequest) (pipeline.BatchSummary, error)
}

// submitFeedback converts a chat() question/answer pair into an
// observation {highlight=question, note=answer, source="__chat",
// tags=["qa"]} and submits it through the normal ingestion flow.
func submitFeedback(ctx context.Context, submitter PipelineSubmitter, appID, userID, question, answer string, now string) (string, error) {
	summary, err := submitter.ProcessBatch(ctx, pipeline.BatchRequest{
		AppID:  appID,
		UserID: userID,
		Batch: []pipeline.RawObservation{{
			Timestamp: now,
			Source:    "__chat",
			Highlight: question,
			Note:      answer,
			Address:   "chat://" + userID,
			Tags:      []string{"qa"},
			Access:    domain.AccessPrivate,
		}},
		Options: pipeline.BatchOptions{
			EnableEnrichment: true,
			Priority:         pipeline.PriorityNormal,
		},
	})
	if err != nil {
		return "", err
	}

	if len(summary.PerItem) == 0 || !summary.PerItem[0].Accepted {
		return "", nil
	}

	return summary.PerItem[0].ID, nil
}
