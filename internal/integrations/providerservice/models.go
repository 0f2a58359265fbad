package providerservice

// Profile профиль врача из ProviderService
type Profile struct {
	ID              int64   `json:"id"`
	FullName        string  `json:"full_name"`
	Specialty       string  `json:"specialty"`
	ConsultationFee float64 `json:"consultation_fee"`
	Timezone        string  `json:"timezone"`
	IsActive        bool    `json:"is_active"`
}

// ErrorResponse модель ошибки от ProviderService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
