package payload

import "time"

type CreateCommentRequest struct {
	Page string `json:"page" validate:"required"`
	Body string `json:"body" validate:"required,max=4000"`
}

type CommentResponse struct {
	ID          string    `json:"id"`
	Page        string    `json:"page"`
	AuthorEmail string    `json:"authorEmail"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

type ListCommentsResponse struct {
	Success  bool              `json:"success"`
	Comments []CommentResponse `json:"comments"`
	Error    string            `json:"error,omitempty"`
}

type CreateCommentResponse struct {
	Success bool             `json:"success"`
	Comment *CommentResponse `json:"comment,omitempty"`
	Error   string           `json:"error,omitempty"`
}

type RegisterDeviceRequest struct {
	Token    string `json:"token"    validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=web ios android"`
}

type UploadResponse struct {
	Success bool   `json:"success"`
	FileID  string `json:"fileId,omitempty"`
	Error   string `json:"error,omitempty"`
}
