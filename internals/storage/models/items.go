package models

type Item struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Description *string `json:"description" db:"description"`
	OwnerID     int64   `json:"owner_id" db:"owner_id"`
}

type ItemCreate struct {
	Title       *string `json:"title" binding:"required"`
	Description *string `json:"description"`
}

func NewItemCreate(title string, description *string) ItemCreate {
	return ItemCreate{Title: &title, Description: description}
}

func (i ItemCreate) TitleValue() string { return deref(i.Title) }
