package engine

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/campfirehq/campfire/internal/models"
)

func TestCreateCommunity(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	community, err := eng.Content.CreateCommunity(ctx, 1, "gophers", "a place")
	if err != nil {
		t.Fatalf("CreateCommunity failed: %v", err)
	}

	role, found, err := eng.Registry.RoleOf(ctx, 1, community.ID)
	if err != nil {
		t.Fatalf("RoleOf failed: %v", err)
	}
	if !found || role != models.RoleAdmin {
		t.Errorf("creator role = %d found=%v, want admin", role, found)
	}

	if _, err := eng.Content.CreateCommunity(ctx, 2, "gophers", ""); !IsConflict(err) {
		t.Errorf("duplicate name: got %v, want conflict", err)
	}
	if _, err := eng.Content.CreateCommunity(ctx, 1, "  ", ""); KindOf(err) != KindValidation {
		t.Errorf("blank name: got %v, want validation", err)
	}
}

func TestCreatePostSpaceCommunityMismatch(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1)
	other, err := eng.Content.CreateCommunity(ctx, 1, "other", "")
	if err != nil {
		t.Fatalf("failed to create second community: %v", err)
	}
	space, err := eng.Content.CreateSpace(ctx, 1, other.ID, "general", "", "", "", nil)
	if err != nil {
		t.Fatalf("failed to create space: %v", err)
	}

	_, err = eng.Content.CreatePost(ctx, 1, community.ID, &space.ID, "s", "m", nil)
	if KindOf(err) != KindInvalidState {
		t.Errorf("got %v, want invalid-state for cross-community space", err)
	}
}

func TestCreatePostValidation(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)

	if _, err := eng.Content.CreatePost(ctx, 2, community.ID, nil, "s", "  ", nil); KindOf(err) != KindValidation {
		t.Errorf("blank message: got %v, want validation", err)
	}
	if _, err := eng.Content.CreatePost(ctx, 42, community.ID, nil, "s", "m", nil); !IsForbidden(err) {
		t.Errorf("outsider: got %v, want forbidden", err)
	}
	huge := Upload{FileName: "big.bin", Content: bytes.Repeat([]byte{0}, (1<<20)+1)}
	if _, err := eng.Content.CreatePost(ctx, 2, community.ID, nil, "s", "m", []Upload{huge}); KindOf(err) != KindValidation {
		t.Errorf("oversized attachment: got %v, want validation", err)
	}
}

func TestUpdatePostEditedTracking(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	post := seedPost(t, eng, 2, community.ID)

	if post.Edited() {
		t.Fatal("fresh post must not read as edited")
	}

	same := post.Message
	unchanged, err := eng.Content.UpdatePost(ctx, 2, post.ID, PostUpdate{Message: &same})
	if err != nil {
		t.Fatalf("no-op update failed: %v", err)
	}
	if unchanged.Edited() {
		t.Error("no-op update must not mark the post edited")
	}

	revised := "revised body"
	updated, err := eng.Content.UpdatePost(ctx, 2, post.ID, PostUpdate{Message: &revised})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.Edited() {
		t.Error("content change must mark the post edited")
	}
	if updated.Message != revised {
		t.Errorf("message = %q, want %q", updated.Message, revised)
	}
}

func TestUpdatePostAuthorization(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)

	subject := "renamed"
	if _, err := eng.Content.UpdatePost(ctx, 3, post.ID, PostUpdate{Subject: &subject}); !IsForbidden(err) {
		t.Errorf("edit by unrelated member: got %v, want forbidden", err)
	}
	// Moderators may edit anyone's post
	if _, err := eng.Content.UpdatePost(ctx, 1, post.ID, PostUpdate{Subject: &subject}); err != nil {
		t.Errorf("edit by moderator failed: %v", err)
	}
}

func TestDeletePostCascade(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)

	reply, err := eng.Replies.AddReply(ctx, 3, post.ID, nil, "a reply")
	if err != nil {
		t.Fatalf("failed to add reply: %v", err)
	}
	if _, err := eng.Replies.AddReply(ctx, 1, post.ID, &reply.ID, "nested"); err != nil {
		t.Fatalf("failed to add nested reply: %v", err)
	}
	if _, err := eng.Ledger.ToggleLike(ctx, 1, models.TargetPost, post.ID); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	if _, err := eng.Ledger.ToggleLike(ctx, 1, models.TargetReply, reply.ID); err != nil {
		t.Fatalf("reply like failed: %v", err)
	}
	if _, err := eng.Ledger.ToggleSave(ctx, 1, post.ID); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, err := eng.Pipeline.Report(ctx, 3, post.ID, "spam"); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	if err := eng.Content.DeletePost(ctx, 2, post.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	counts := map[string]interface{}{
		"replies": &models.Reply{},
		"likes":   &models.LikeRelation{},
		"saves":   &models.SaveRelation{},
		"reports": &models.Report{},
		"posts":   &models.Post{},
	}
	for name, model := range counts {
		var n int64
		if err := database.Model(model).Count(&n).Error; err != nil {
			t.Fatalf("count %s failed: %v", name, err)
		}
		if n != 0 {
			t.Errorf("%s left behind after delete: %d rows", name, n)
		}
	}
}

func TestDeleteSpaceHidesPosts(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	space, err := eng.Content.CreateSpace(ctx, 1, community.ID, "general", "", "", "", []int64{2})
	if err != nil {
		t.Fatalf("failed to create space: %v", err)
	}
	inSpace, err := eng.Content.CreatePost(ctx, 2, community.ID, &space.ID, "s", "space post", nil)
	if err != nil {
		t.Fatalf("failed to create space post: %v", err)
	}
	outside := seedPost(t, eng, 2, community.ID)

	if err := eng.Content.DeleteSpace(ctx, 1, space.ID); err != nil {
		t.Fatalf("DeleteSpace failed: %v", err)
	}

	page, err := eng.Feed.GetFeed(ctx, 1, community.ID, FeedFilter{}, SortNewest, 0, 10)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(page.Posts) != 1 || page.Posts[0].ID != outside.ID {
		t.Errorf("feed = %v, want only the post outside the deleted space", feedIDs(page))
	}
	if _, err := eng.Content.GetPostDetail(ctx, 2, inSpace.ID); !IsNotFound(err) {
		t.Errorf("member reading post of deleted space: got %v, want not-found", err)
	}

	detail, err := eng.Content.GetCommunityDetail(ctx, 2, community.ID)
	if err != nil {
		t.Fatalf("GetCommunityDetail failed: %v", err)
	}
	if len(detail.Spaces) != 0 {
		t.Errorf("deleted space still listed in community detail")
	}

	// Deleting again treats the hidden space as gone
	if err := eng.Content.DeleteSpace(ctx, 1, space.ID); !IsNotFound(err) {
		t.Errorf("second delete: got %v, want not-found", err)
	}
}

func TestGetPostDetailHiddenVisibility(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2, 3)
	post := seedPost(t, eng, 2, community.ID)
	if _, err := eng.Pipeline.Report(ctx, 3, post.ID, "spam"); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if err := eng.Pipeline.ConfirmViolation(ctx, 1, post.ID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	if _, err := eng.Content.GetPostDetail(ctx, 3, post.ID); !IsNotFound(err) {
		t.Errorf("member reading hidden post: got %v, want not-found", err)
	}
	detail, err := eng.Content.GetPostDetail(ctx, 1, post.ID)
	if err != nil {
		t.Fatalf("moderator reading hidden post failed: %v", err)
	}
	if !detail.Post.Hidden {
		t.Error("moderator view should expose the hidden flag")
	}
}

func TestPostAttachmentsLifecycle(t *testing.T) {
	eng, database := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)

	post, err := eng.Content.CreatePost(ctx, 2, community.ID, nil, "s", "with file", []Upload{
		{FileName: "notes.txt", Content: []byte("hello")},
	})
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	detail, err := eng.Content.GetPostDetail(ctx, 2, post.ID)
	if err != nil {
		t.Fatalf("GetPostDetail failed: %v", err)
	}
	if len(detail.Attachments) != 1 || detail.Attachments[0].FileName != "notes.txt" {
		t.Fatalf("got attachments %v, want notes.txt", detail.Attachments)
	}
	if detail.Attachments[0].Size != 5 {
		t.Errorf("size = %d, want 5", detail.Attachments[0].Size)
	}

	if _, err := eng.Content.UpdatePost(ctx, 2, post.ID, PostUpdate{
		RemoveAttachments: []int64{detail.Attachments[0].ID},
	}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	var n int64
	if err := database.Model(&models.Attachment{}).Where("post_id = ?", post.ID).Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("attachment row survived removal")
	}
}

func TestResourceLifecycle(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)

	resource, err := eng.Content.CreateResource(ctx, 2, community.ID, nil, "handbook", "the rules", Upload{
		FileName: "handbook.pdf",
		Content:  []byte("pdf bytes"),
	})
	if err != nil {
		t.Fatalf("CreateResource failed: %v", err)
	}

	got, content, err := eng.Content.DownloadResource(ctx, 1, resource.ID)
	if err != nil {
		t.Fatalf("DownloadResource failed: %v", err)
	}
	if !bytes.Equal(content, []byte("pdf bytes")) {
		t.Errorf("content round-trip failed")
	}
	if got.DownloadCount != 1 {
		t.Errorf("download_count = %d, want 1", got.DownloadCount)
	}

	if _, _, err := eng.Content.DownloadResource(ctx, 42, resource.ID); !IsForbidden(err) {
		t.Errorf("download by outsider: got %v, want forbidden", err)
	}
	if _, err := eng.Content.CreateResource(ctx, 42, community.ID, nil, "x", "", Upload{FileName: "x", Content: []byte("y")}); !IsForbidden(err) {
		t.Errorf("upload by outsider: got %v, want forbidden", err)
	}
}

func TestEventLifecycle(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)

	starts := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	ends := starts.Add(2 * time.Hour)

	if _, err := eng.Content.CreateEvent(ctx, 1, community.ID, nil, "meetup", "", "social", "hall", starts, starts); KindOf(err) != KindValidation {
		t.Errorf("zero-length event: got %v, want validation", err)
	}
	if _, err := eng.Content.CreateEvent(ctx, 2, community.ID, nil, "meetup", "", "social", "hall", starts, ends); !IsForbidden(err) {
		t.Errorf("event by member: got %v, want forbidden", err)
	}

	event, err := eng.Content.CreateEvent(ctx, 1, community.ID, nil, "meetup", "monthly", "social", "hall", starts, ends)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	badEnd := starts.Add(-time.Hour)
	if _, err := eng.Content.UpdateEvent(ctx, 1, event.ID, EventUpdate{EndsAt: &badEnd}); KindOf(err) != KindValidation {
		t.Errorf("update inverting times: got %v, want validation", err)
	}

	title := "renamed meetup"
	updated, err := eng.Content.UpdateEvent(ctx, 1, event.ID, EventUpdate{Title: &title})
	if err != nil {
		t.Fatalf("UpdateEvent failed: %v", err)
	}
	if updated.Title != title {
		t.Errorf("title = %q, want %q", updated.Title, title)
	}

	if err := eng.Content.DeleteEvent(ctx, 1, event.ID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	if err := eng.Content.DeleteEvent(ctx, 1, event.ID); !IsNotFound(err) {
		t.Errorf("second delete: got %v, want not-found", err)
	}
}

func TestGetCommunityDetail(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	community := seedCommunity(t, eng, 1, 2)
	seedPost(t, eng, 2, community.ID)
	if _, err := eng.Content.CreateSpace(ctx, 1, community.ID, "general", "", "", "", nil); err != nil {
		t.Fatalf("failed to create space: %v", err)
	}

	detail, err := eng.Content.GetCommunityDetail(ctx, 2, community.ID)
	if err != nil {
		t.Fatalf("GetCommunityDetail failed: %v", err)
	}
	if detail.PostCount != 1 || len(detail.Spaces) != 1 || len(detail.Members) != 2 {
		t.Errorf("got posts=%d spaces=%d members=%d, want 1/1/2",
			detail.PostCount, len(detail.Spaces), len(detail.Members))
	}

	if _, err := eng.Content.GetCommunityDetail(ctx, 42, community.ID); !IsForbidden(err) {
		t.Errorf("detail for outsider: got %v, want forbidden", err)
	}
	if _, err := eng.Content.GetCommunityDetail(ctx, 1, 9999); !IsNotFound(err) {
		t.Errorf("missing community: got %v, want not-found", err)
	}
}
