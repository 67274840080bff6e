package api

import (
	"time"

	"github.com/campfirehq/campfire/internal/engine"
	"github.com/campfirehq/campfire/internal/models"
)

// Wire representations of the persisted entities. Nullable columns become
// pointer fields so clients see null instead of wrapper objects.

type communityView struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatorID   int64     `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func newCommunityView(c *models.Community) *communityView {
	return &communityView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatorID:   c.CreatorID,
		CreatedAt:   c.CreatedAt,
	}
}

type membershipView struct {
	UserID   int64     `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

func newMembershipView(m *models.Membership) *membershipView {
	return &membershipView{
		UserID:   m.UserID,
		Role:     engine.RoleName(m.Role),
		JoinedAt: m.CreatedAt,
	}
}

type spaceView struct {
	ID          int64     `json:"id"`
	CommunityID int64     `json:"community_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
}

func newSpaceView(s *models.Space) *spaceView {
	return &spaceView{
		ID:          s.ID,
		CommunityID: s.CommunityID,
		Name:        s.Name,
		Description: s.Description,
		Icon:        s.Icon,
		Color:       s.Color,
		CreatedAt:   s.CreatedAt,
	}
}

type cohortView struct {
	ID          int64     `json:"id"`
	CommunityID int64     `json:"community_id"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}

func newCohortView(c *models.Cohort) *cohortView {
	return &cohortView{
		ID:          c.ID,
		CommunityID: c.CommunityID,
		Name:        c.Name,
		CreatedAt:   c.CreatedAt,
	}
}

type postView struct {
	ID          int64     `json:"id"`
	CommunityID int64     `json:"community_id"`
	SpaceID     *int64    `json:"space_id"`
	AuthorID    int64     `json:"author_id"`
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"created_at"`
	ModifiedAt  time.Time `json:"modified_at"`
	Edited      bool      `json:"edited"`
	LikeCount   int64     `json:"like_count"`
	SaveCount   int64     `json:"save_count"`
	ReplyCount  int64     `json:"reply_count"`
	ReportCount int64     `json:"report_count"`
	Hidden      bool      `json:"hidden"`
	FlagStatus  string    `json:"flag_status"`
	FlagReason  *string   `json:"flag_reason,omitempty"`
	Liked       bool      `json:"liked"`
	Saved       bool      `json:"saved"`
}

func newPostView(p *models.Post) *postView {
	view := &postView{
		ID:          p.ID,
		CommunityID: p.CommunityID,
		AuthorID:    p.AuthorID,
		Subject:     p.Subject,
		Message:     p.Message,
		CreatedAt:   p.CreatedAt,
		ModifiedAt:  p.ModifiedAt,
		Edited:      p.Edited(),
		LikeCount:   p.LikeCount,
		SaveCount:   p.SaveCount,
		ReplyCount:  p.ReplyCount,
		ReportCount: p.ReportCount,
		Hidden:      p.Hidden,
		FlagStatus:  flagStatusName(p.FlagStatus),
	}
	if p.SpaceID.Valid {
		view.SpaceID = &p.SpaceID.Int64
	}
	if p.FlagReason.Valid {
		view.FlagReason = &p.FlagReason.String
	}
	return view
}

func newPostViews(posts []*models.Post) []*postView {
	views := make([]*postView, 0, len(posts))
	for _, p := range posts {
		views = append(views, newPostView(p))
	}
	return views
}

func flagStatusName(status int16) string {
	switch status {
	case models.FlagStatusPending:
		return "pending"
	case models.FlagStatusApproved:
		return "approved"
	case models.FlagStatusActioned:
		return "actioned"
	default:
		return "none"
	}
}

type attachmentView struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

func newAttachmentViews(attachments []*models.Attachment) []*attachmentView {
	views := make([]*attachmentView, 0, len(attachments))
	for _, a := range attachments {
		views = append(views, &attachmentView{ID: a.ID, FileName: a.FileName, Size: a.Size})
	}
	return views
}

type replyView struct {
	ID        int64        `json:"id"`
	PostID    int64        `json:"post_id"`
	ParentID  *int64       `json:"parent_id"`
	AuthorID  int64        `json:"author_id"`
	Message   string       `json:"message"`
	CreatedAt time.Time    `json:"created_at"`
	LikeCount int64        `json:"like_count"`
	Liked     bool         `json:"liked"`
	Children  []*replyView `json:"children"`
}

func newReplyView(r *models.Reply) *replyView {
	view := &replyView{
		ID:        r.ID,
		PostID:    r.PostID,
		AuthorID:  r.AuthorID,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
		LikeCount: r.LikeCount,
		Children:  make([]*replyView, 0),
	}
	if r.ParentID.Valid {
		view.ParentID = &r.ParentID.Int64
	}
	return view
}

func newReplyTreeViews(nodes []*engine.ReplyNode) []*replyView {
	views := make([]*replyView, 0, len(nodes))
	for _, node := range nodes {
		view := newReplyView(node.Reply)
		view.Liked = node.Liked
		view.Children = newReplyTreeViews(node.Children)
		views = append(views, view)
	}
	return views
}

type resourceView struct {
	ID            int64     `json:"id"`
	CommunityID   int64     `json:"community_id"`
	SpaceID       *int64    `json:"space_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	FileName      string    `json:"file_name"`
	UploaderID    int64     `json:"uploader_id"`
	DownloadCount int64     `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func newResourceView(r *models.Resource) *resourceView {
	view := &resourceView{
		ID:            r.ID,
		CommunityID:   r.CommunityID,
		Title:         r.Title,
		Description:   r.Description,
		FileName:      r.FileName,
		UploaderID:    r.UploaderID,
		DownloadCount: r.DownloadCount,
		CreatedAt:     r.CreatedAt,
	}
	if r.SpaceID.Valid {
		view.SpaceID = &r.SpaceID.Int64
	}
	return view
}

type eventView struct {
	ID          int64     `json:"id"`
	CommunityID int64     `json:"community_id"`
	SpaceID     *int64    `json:"space_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatorID   int64     `json:"creator_id"`
	CreatedAt   time.Time `json:"created_at"`
}

func newEventView(e *models.Event) *eventView {
	view := &eventView{
		ID:          e.ID,
		CommunityID: e.CommunityID,
		Title:       e.Title,
		Description: e.Description,
		Type:        e.Type,
		Location:    e.Location,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		CreatorID:   e.CreatorID,
		CreatedAt:   e.CreatedAt,
	}
	if e.SpaceID.Valid {
		view.SpaceID = &e.SpaceID.Int64
	}
	return view
}

type notificationView struct {
	ID          int64     `json:"id"`
	Type        int16     `json:"type"`
	SrcID       *int64    `json:"src_id"`
	CommunityID *int64    `json:"community_id"`
	PostID      *int64    `json:"post_id"`
	Payload     *string   `json:"payload"`
	CreatedAt   time.Time `json:"created_at"`
}

func newNotificationView(n *models.Notification) *notificationView {
	view := &notificationView{
		ID:        n.ID,
		Type:      n.Type,
		CreatedAt: n.CreatedAt,
	}
	if n.SrcID.Valid {
		view.SrcID = &n.SrcID.Int64
	}
	if n.CommunityID.Valid {
		view.CommunityID = &n.CommunityID.Int64
	}
	if n.PostID.Valid {
		view.PostID = &n.PostID.Int64
	}
	if n.Payload.Valid {
		view.Payload = &n.Payload.String
	}
	return view
}

type feedPageView struct {
	Posts    []*postView `json:"posts"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
	Total    int64       `json:"total"`
	HasNext  bool        `json:"has_next"`
}

func newFeedPageView(page *engine.FeedPage) *feedPageView {
	posts := make([]*postView, 0, len(page.Posts))
	for _, fp := range page.Posts {
		view := newPostView(fp.Post)
		view.Liked = fp.Liked
		view.Saved = fp.Saved
		posts = append(posts, view)
	}
	return &feedPageView{
		Posts:    posts,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
		HasNext:  page.HasNext,
	}
}
