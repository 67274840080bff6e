package engine

import (
	"context"
	"testing"

	"github.com/campfirehq/campfire/internal/models"
)

func TestAddReplyAndBuildTree(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)

	top1, err := eng.Replies.AddReply(ctx, 3, post.ID, nil, "first")
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	top2, err := eng.Replies.AddReply(ctx, 1, post.ID, nil, "second")
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	child, err := eng.Replies.AddReply(ctx, 2, post.ID, &top1.ID, "nested")
	if err != nil {
		t.Fatalf("failed to add nested reply: %v", err)
	}
	grandchild, err := eng.Replies.AddReply(ctx, 3, post.ID, &child.ID, "deeper")
	if err != nil {
		t.Fatalf("failed to add deep reply: %v", err)
	}

	detail, err := eng.Content.GetPostDetail(ctx, 1, post.ID)
	if err != nil {
		t.Fatalf("GetPostDetail failed: %v", err)
	}
	if detail.Post.ReplyCount != 4 {
		t.Errorf("reply_count = %d, want 4", detail.Post.ReplyCount)
	}

	roots, err := eng.Replies.GetReplyTree(ctx, 1, post.ID)
	if err != nil {
		t.Fatalf("GetReplyTree failed: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	if roots[0].ID != top1.ID || roots[1].ID != top2.ID {
		t.Errorf("roots out of order: got [%d %d], want [%d %d]",
			roots[0].ID, roots[1].ID, top1.ID, top2.ID)
	}
	if len(roots[0].Children) != 1 || roots[0].Children[0].ID != child.ID {
		t.Fatalf("first root has wrong children")
	}
	if len(roots[0].Children[0].Children) != 1 || roots[0].Children[0].Children[0].ID != grandchild.ID {
		t.Errorf("nesting below depth two lost")
	}
	if len(roots[1].Children) != 0 {
		t.Errorf("second root should be a leaf")
	}
}

func TestReplyTreeLikedFlag(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	liked, err := eng.Replies.AddReply(ctx, 2, post.ID, nil, "like me")
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	if _, err := eng.Replies.AddReply(ctx, 2, post.ID, nil, "ignore me"); err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	if _, err := eng.Ledger.ToggleLike(ctx, 1, models.TargetReply, liked.ID); err != nil {
		t.Fatalf("like failed: %v", err)
	}

	roots, err := eng.Replies.GetReplyTree(ctx, 1, post.ID)
	if err != nil {
		t.Fatalf("GetReplyTree failed: %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("got %d roots, want 2", len(roots))
	}
	if !roots[0].Liked || roots[1].Liked {
		t.Errorf("got liked=[%v %v], want [true false]", roots[0].Liked, roots[1].Liked)
	}
	if roots[0].LikeCount != 1 {
		t.Errorf("like_count = %d, want 1", roots[0].LikeCount)
	}
}

func TestAddReplyErrors(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)
	otherPost := seedPost(t, eng, 2, community.ID)
	foreignParent, err := eng.Replies.AddReply(ctx, 1, otherPost.ID, nil, "elsewhere")
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	hiddenPost := seedPost(t, eng, 2, community.ID)
	if err := database.Model(&models.Post{}).Where("id = ?", hiddenPost.ID).
		Update("hidden", true).Error; err != nil {
		t.Fatalf("failed to hide post: %v", err)
	}
	missingParent := int64(9999)

	tests := []struct {
		name     string
		authorID int64
		postID   int64
		parentID *int64
		message  string
		wantKind Kind
	}{
		{"empty message", 1, post.ID, nil, "   ", KindValidation},
		{"missing post", 1, 9999, nil, "hi", KindNotFound},
		{"hidden post", 1, hiddenPost.ID, nil, "hi", KindNotFound},
		{"non member", 42, post.ID, nil, "hi", KindForbidden},
		{"missing parent", 1, post.ID, &missingParent, "hi", KindNotFound},
		{"parent on other post", 1, post.ID, &foreignParent.ID, "hi", KindInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eng.Replies.AddReply(ctx, tt.authorID, tt.postID, tt.parentID, tt.message)
			if KindOf(err) != tt.wantKind {
				t.Errorf("got error %v, want kind %d", err, tt.wantKind)
			}
		})
	}
}

func TestReplyTreeHiddenPostModeratorOnly(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)
	if _, err := eng.Replies.AddReply(ctx, 3, post.ID, nil, "kept"); err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	if err := database.Model(&models.Post{}).Where("id = ?", post.ID).
		Update("hidden", true).Error; err != nil {
		t.Fatalf("failed to hide post: %v", err)
	}

	if _, err := eng.Replies.GetReplyTree(ctx, 3, post.ID); !IsNotFound(err) {
		t.Errorf("member reading hidden post: got %v, want not-found", err)
	}
	roots, err := eng.Replies.GetReplyTree(ctx, 1, post.ID)
	if err != nil {
		t.Fatalf("moderator reading hidden post failed: %v", err)
	}
	if len(roots) != 1 {
		t.Errorf("moderator got %d roots, want 1", len(roots))
	}
}
