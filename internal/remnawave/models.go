package remnawave

type CreateUserRequest struct {
	Username             string   `json:"username"`
	Status               string   `json:"status"`
	TelegramID           int64    `json:"telegramId"`
	ExpireAt             string   `json:"expireAt"` // ISO 8601 format
	Description          string   `json:"description,omitempty"`
	ActiveInternalSquads []string `json:"activeInternalSquads"`
}

type UserResponse struct {
	UUID            string `json:"uuid"`
	ShortUUID       string `json:"shortUuid"`
	Username        string `json:"username"`
	Status          string `json:"status"`
	ExpireAt        string `json:"expireAt"`
	Description     string `json:"description"`
	SubscriptionURL string `json:"subscriptionUrl"`
}

type ExtendSubscriptionRequest struct {
	ExpireAt string `json:"expireAt"` // ISO 8601 format
}
