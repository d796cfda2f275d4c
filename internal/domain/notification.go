package domain

// NotificationVariant задает оформление уведомления
type NotificationVariant string

const (
	NotificationDefault     NotificationVariant = "default"
	NotificationDestructive NotificationVariant = "destructive"
)

// Notification - всплывающее уведомление (toast) для пользователя
type Notification struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Variant     NotificationVariant `json:"variant"`
}

// IsDestructive сообщает, что уведомление описывает ошибку
func (n Notification) IsDestructive() bool {
	return n.Variant == NotificationDestructive
}

// Success создает обычное уведомление
func Success(title, description string) Notification {
	return Notification{Title: title, Description: description, Variant: NotificationDefault}
}

// Failure создает уведомление об ошибке. Текст ошибки показывается как есть.
func Failure(title string, err error) Notification {
	desc := ""
	if err != nil {
		desc = err.Error()
	}
	return Notification{Title: title, Description: desc, Variant: NotificationDestructive}
}
