package structs

// MessageInput is one conversation turn as submitted by the client. Any
// client-supplied timestamp is ignored; the server stamps every message.
type MessageInput struct {
	Role     string `json:"role" binding:"required"`
	Content  string `json:"content"`
	Model    string `json:"model"`
	Type     string `json:"type"`
	ImageURL string `json:"imageUrl"`
	AudioURL string `json:"audioUrl"`
}

type SaveChatRequest struct {
	Title          string         `json:"title" binding:"required"`
	Messages       []MessageInput `json:"messages" binding:"required"`
	Mode           string         `json:"mode"`
	GenerationType string         `json:"generationType"`
	Models         []string       `json:"models"`
}

// UpdateChatRequest carries a partial update: nil fields are left unchanged.
type UpdateChatRequest struct {
	Title    *string         `json:"title"`
	Messages *[]MessageInput `json:"messages"`
}
