package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/campfirehq/campfire/internal/models"
)

func TestToggleLikePost(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	first, err := eng.Ledger.ToggleLike(ctx, 1, models.TargetPost, post.ID)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !first.Liked || first.LikeCount != 1 {
		t.Errorf("first toggle: got liked=%v count=%d, want liked=true count=1", first.Liked, first.LikeCount)
	}

	second, err := eng.Ledger.ToggleLike(ctx, 1, models.TargetPost, post.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if second.Liked || second.LikeCount != 0 {
		t.Errorf("second toggle: got liked=%v count=%d, want liked=false count=0", second.Liked, second.LikeCount)
	}
}

func TestToggleLikeReply(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)
	reply, err := eng.Replies.AddReply(ctx, 1, post.ID, nil, "a reply")
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}

	result, err := eng.Ledger.ToggleLike(ctx, 2, models.TargetReply, reply.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !result.Liked || result.LikeCount != 1 {
		t.Errorf("got liked=%v count=%d, want liked=true count=1", result.Liked, result.LikeCount)
	}

	result, err = eng.Ledger.ToggleLike(ctx, 2, models.TargetReply, reply.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if result.Liked || result.LikeCount != 0 {
		t.Errorf("got liked=%v count=%d, want liked=false count=0", result.Liked, result.LikeCount)
	}
}

func TestToggleLikeErrors(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		targetType int16
		targetID   int64
		wantKind   Kind
	}{
		{"unknown target type", 99, 1, KindValidation},
		{"missing post", models.TargetPost, 12345, KindNotFound},
		{"missing reply", models.TargetReply, 12345, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Ledger.ToggleLike(ctx, 1, tt.targetType, tt.targetID)
			if KindOf(err) != tt.wantKind {
				t.Errorf("got error %v, want kind %d", err, tt.wantKind)
			}
		})
	}
}

func TestToggleSave(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	first, err := eng.Ledger.ToggleSave(ctx, 1, post.ID)
	if err != nil {
		t.Fatalf("first toggle failed: %v", err)
	}
	if !first.Saved || first.SaveCount != 1 {
		t.Errorf("first toggle: got saved=%v count=%d, want saved=true count=1", first.Saved, first.SaveCount)
	}

	second, err := eng.Ledger.ToggleSave(ctx, 1, post.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if second.Saved || second.SaveCount != 0 {
		t.Errorf("second toggle: got saved=%v count=%d, want saved=false count=0", second.Saved, second.SaveCount)
	}
}

func TestToggleSaveMissingPost(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := eng.Ledger.ToggleSave(context.Background(), 1, 999)
	if !IsNotFound(err) {
		t.Errorf("got %v, want not-found error", err)
	}
}

func TestToggleLikeCountNeverNegative(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	// A like row without a matching counter bump simulates drift
	if _, err := eng.Ledger.ToggleLike(ctx, 1, models.TargetPost, post.ID); err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if err := database.Model(&models.Post{}).Where("id = ?", post.ID).
		Update("like_count", 0).Error; err != nil {
		t.Fatalf("failed to force counter: %v", err)
	}

	result, err := eng.Ledger.ToggleLike(ctx, 1, models.TargetPost, post.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if result.LikeCount != 0 {
		t.Errorf("got count %d, want 0 (counter must not go negative)", result.LikeCount)
	}
}

func TestConcurrentLikesConverge(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	const users = 16
	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			if _, err := eng.Ledger.ToggleLike(ctx, userID, models.TargetPost, post.ID); err != nil {
				errs <- err
			}
		}(int64(i + 1))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("toggle failed: %v", err)
	}

	var relations int64
	if err := database.Model(&models.LikeRelation{}).
		Where("target_type = ? AND target_id = ?", models.TargetPost, post.ID).
		Count(&relations).Error; err != nil {
		t.Fatalf("failed to count relations: %v", err)
	}
	var fresh models.Post
	if err := database.First(&fresh, post.ID).Error; err != nil {
		t.Fatalf("failed to reload post: %v", err)
	}
	if relations != users {
		t.Errorf("got %d like relations, want %d", relations, users)
	}
	if fresh.LikeCount != relations {
		t.Errorf("like_count=%d diverged from %d relations", fresh.LikeCount, relations)
	}
}
