package redflags_test

import (
	"context"
	"testing"

	"github.com/cosminimum/theregistry/internal/models"
	"github.com/cosminimum/theregistry/internal/redflags"
)

func TestValidateMetadata(t *testing.T) {
	ctx := context.Background()

	md := models.NewInterviewMetadata()
	if err := redflags.ValidateMetadata(ctx, md); err != nil {
		t.Fatalf("fresh metadata should validate: %v", err)
	}

	md = redflags.Merge(md, []models.RedFlag{{
		Type:       redflags.TypeCoaching,
		Penalty:    -3,
		Evidence:   "Coaching pattern detected",
		DetectedAt: models.NowStamp(),
		TurnNumber: 2,
	}})
	md.KeyClaims["purpose"] = "research"
	if err := redflags.ValidateMetadata(ctx, md); err != nil {
		t.Fatalf("flagged metadata should validate: %v", err)
	}

	// a positive penalty is a writer bug the schema must catch
	broken := models.NewInterviewMetadata()
	broken.RedFlags = append(broken.RedFlags, models.RedFlag{
		Type:       redflags.TypeCoaching,
		Penalty:    3,
		Evidence:   "sign flipped",
		DetectedAt: models.NowStamp(),
		TurnNumber: 2,
	})
	if err := redflags.ValidateMetadata(ctx, broken); err == nil {
		t.Error("positive penalty should fail validation")
	}

	positive := models.NewInterviewMetadata()
	positive.TotalPenalty = 5
	if err := redflags.ValidateMetadata(ctx, positive); err == nil {
		t.Error("positive total_penalty should fail validation")
	}
}
