package repository

import "github.com/Dhoini/primeconnect-dashboard/internal/domain"

var (
	// ErrNotFound запись не найдена
	ErrNotFound = domain.ErrNotFound

	// ErrAlreadySubscribed активная подписка на этот пакет уже существует
	ErrAlreadySubscribed = domain.ErrAlreadySubscribed

	// ErrMultipleActive у клиента несколько активных подписок
	ErrMultipleActive = domain.ErrMultipleActiveSubscriptions
)
