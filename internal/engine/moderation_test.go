package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/campfirehq/campfire/internal/classifier"
	"github.com/campfirehq/campfire/internal/models"
)

func TestReportIdempotent(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)

	first, err := eng.Pipeline.Report(ctx, 3, post.ID, "spam")
	if err != nil {
		t.Fatalf("first report failed: %v", err)
	}
	if first.AlreadyReported || first.ReportCount != 1 {
		t.Errorf("first report: got already=%v count=%d, want already=false count=1",
			first.AlreadyReported, first.ReportCount)
	}

	second, err := eng.Pipeline.Report(ctx, 3, post.ID, "spam again")
	if err != nil {
		t.Fatalf("second report failed: %v", err)
	}
	if !second.AlreadyReported || second.ReportCount != 1 {
		t.Errorf("second report: got already=%v count=%d, want already=true count=1",
			second.AlreadyReported, second.ReportCount)
	}
}

func TestReportErrors(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	tests := []struct {
		name       string
		reporterID int64
		postID     int64
		wantKind   Kind
	}{
		{"own post", 2, post.ID, KindInvalidState},
		{"non member", 99, post.ID, KindForbidden},
		{"missing post", 1, 12345, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Pipeline.Report(ctx, tt.reporterID, tt.postID, "reason")
			if KindOf(err) != tt.wantKind {
				t.Errorf("got error %v, want kind %d", err, tt.wantKind)
			}
		})
	}
}

func TestScanFlagsPost(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	pipeline := NewPipeline(database, eng.Registry,
		&stubClassifier{verdict: classifier.Verdict{Flagged: true, Reason: "toxicity"}},
		eng.Notifier)
	pipeline.Scan(ctx, post.ID, post.Message)

	var fresh models.Post
	if err := database.First(&fresh, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if !fresh.Flagged || fresh.FlagStatus != models.FlagStatusPending {
		t.Errorf("got flagged=%v status=%d, want flagged=true status=pending", fresh.Flagged, fresh.FlagStatus)
	}
	if fresh.FlagReason.String != "toxicity" {
		t.Errorf("got reason %q, want %q", fresh.FlagReason.String, "toxicity")
	}
	if fresh.Hidden {
		t.Error("flagging must not hide the post before a moderator decides")
	}

	queue, err := pipeline.ListFlagged(ctx, 1, community.ID)
	if err != nil {
		t.Fatalf("ListFlagged failed: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != post.ID {
		t.Errorf("flag queue = %d posts, want the flagged post only", len(queue))
	}
}

func TestScanClassifierFailure(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	pipeline := NewPipeline(database, eng.Registry,
		&stubClassifier{err: errors.New("connection refused")},
		eng.Notifier)
	pipeline.Scan(ctx, post.ID, post.Message)

	var fresh models.Post
	if err := database.First(&fresh, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if fresh.Flagged || fresh.FlagStatus != models.FlagStatusNone {
		t.Errorf("classifier failure must leave the post unflagged, got flagged=%v status=%d",
			fresh.Flagged, fresh.FlagStatus)
	}
}

func TestListQueuesRequireModerator(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)

	if _, err := eng.Pipeline.ListFlagged(ctx, 2, community.ID); !IsForbidden(err) {
		t.Errorf("ListFlagged by member: got %v, want forbidden", err)
	}
	if _, err := eng.Pipeline.ListReported(ctx, 2, community.ID); !IsForbidden(err) {
		t.Errorf("ListReported by member: got %v, want forbidden", err)
	}
}

func TestConfirmViolation(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)

	if _, err := eng.Pipeline.Report(ctx, 3, post.ID, "harassment"); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if err := eng.Pipeline.ConfirmViolation(ctx, 1, post.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	var fresh models.Post
	if err := database.First(&fresh, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if !fresh.Hidden || fresh.FlagStatus != models.FlagStatusActioned {
		t.Errorf("got hidden=%v status=%d, want hidden=true status=actioned", fresh.Hidden, fresh.FlagStatus)
	}

	// The decision is terminal; a second moderator loses the race
	if err := eng.Pipeline.ConfirmViolation(ctx, 1, post.ID); KindOf(err) != KindInvalidState {
		t.Errorf("second confirm: got %v, want invalid-state", err)
	}
}

func TestDismissFlagKeepsPostVisible(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	pipeline := NewPipeline(database, eng.Registry,
		&stubClassifier{verdict: classifier.Verdict{Flagged: true, Reason: "spam"}},
		eng.Notifier)
	pipeline.Scan(ctx, post.ID, post.Message)

	if err := eng.Pipeline.DismissFlag(ctx, 1, post.ID); err != nil {
		t.Fatalf("dismiss failed: %v", err)
	}

	var fresh models.Post
	if err := database.First(&fresh, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if fresh.Hidden {
		t.Error("dismissed post must stay visible")
	}
	if fresh.Flagged || fresh.FlagStatus != models.FlagStatusApproved {
		t.Errorf("got flagged=%v status=%d, want flagged=false status=approved", fresh.Flagged, fresh.FlagStatus)
	}

	queue, err := eng.Pipeline.ListFlagged(ctx, 1, community.ID)
	if err != nil {
		t.Fatalf("ListFlagged failed: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("flag queue still holds %d posts after dismissal", len(queue))
	}
}

func TestDismissedPostLeavesReportQueue(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)

	if _, err := eng.Pipeline.Report(ctx, 3, post.ID, "spam"); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	queue, err := eng.Pipeline.ListReported(ctx, 1, community.ID)
	if err != nil {
		t.Fatalf("ListReported failed: %v", err)
	}
	if len(queue) != 1 {
		t.Fatalf("report queue = %d posts, want 1", len(queue))
	}

	if err := eng.Pipeline.DismissFlag(ctx, 1, post.ID); err != nil {
		t.Fatalf("dismiss failed: %v", err)
	}

	queue, err = eng.Pipeline.ListReported(ctx, 1, community.ID)
	if err != nil {
		t.Fatalf("ListReported failed: %v", err)
	}
	if len(queue) != 0 {
		t.Errorf("report queue still holds %d posts after dismissal", len(queue))
	}
}

func TestScanDoesNotResurrectActionedPost(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)

	if _, err := eng.Pipeline.Report(ctx, 3, post.ID, "spam"); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if err := eng.Pipeline.ConfirmViolation(ctx, 1, post.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	pipeline := NewPipeline(database, eng.Registry,
		&stubClassifier{verdict: classifier.Verdict{Flagged: true, Reason: "late verdict"}},
		eng.Notifier)
	pipeline.Scan(ctx, post.ID, post.Message)

	var fresh models.Post
	if err := database.First(&fresh, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if fresh.FlagStatus != models.FlagStatusActioned || !fresh.Hidden {
		t.Errorf("late scan reopened an actioned post: status=%d hidden=%v", fresh.FlagStatus, fresh.Hidden)
	}
}

func TestTransitionRequiresModerator(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)

	if _, err := eng.Pipeline.Report(ctx, 3, post.ID, "spam"); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if err := eng.Pipeline.ConfirmViolation(ctx, 3, post.ID); !IsForbidden(err) {
		t.Errorf("confirm by member: got %v, want forbidden", err)
	}
	if err := eng.Pipeline.DismissFlag(ctx, 3, post.ID); !IsForbidden(err) {
		t.Errorf("dismiss by member: got %v, want forbidden", err)
	}
}

func TestModeratorDeletesReportedPost(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3, 4)
	post := seedPost(t, eng, 2, community.ID)

	if err := eng.Registry.UpdateMemberRole(ctx, 1, community.ID, 3, models.RoleModerator); err != nil {
		t.Fatalf("failed to promote moderator: %v", err)
	}
	if _, err := eng.Pipeline.Report(ctx, 4, post.ID, "spam"); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if err := eng.Content.DeletePost(ctx, 4, post.ID); !IsForbidden(err) {
		t.Errorf("delete by plain member: got %v, want forbidden", err)
	}

	if err := eng.Content.DeletePost(ctx, 3, post.ID); err != nil {
		t.Fatalf("moderator delete failed: %v", err)
	}

	var posts int64
	if err := database.Model(&models.Post{}).Where("id = ?", post.ID).Count(&posts).Error; err != nil {
		t.Fatalf("failed to count posts: %v", err)
	}
	if posts != 0 {
		t.Error("post survived moderator delete")
	}
	var reports int64
	if err := database.Model(&models.Report{}).Where("post_id = ?", post.ID).Count(&reports).Error; err != nil {
		t.Fatalf("failed to count reports: %v", err)
	}
	if reports != 0 {
		t.Errorf("%d reports survived moderator delete", reports)
	}
}
