package dto

type CollectionResponse struct {
	CollectionID   string `json:"collection_id"`
	FaceCount      int    `json:"face_count"`
	AlreadyExisted bool   `json:"already_existed"`
	LastIndexedAt  string `json:"last_indexed_at,omitempty"`
}
