package tlscert

import "errors"

// Ошибки проверки PEM-файлов.
var (
	ErrCertExpired     = errors.New("certificate is expired")       // Срок действия сертификата истек.
	ErrCertNotValidYet = errors.New("certificate is not valid yet") // Сертификат еще не вступил в силу.
	ErrBlankPEM        = errors.New("pem is blank")                 // Пустые данные в PEM-файле.
	ErrKeyMismatch     = errors.New("private key does not match")   // Ключ не подходит к сертификату.
	ErrNotCertificate  = errors.New("pem block is not certificate") // В файле сертификата другой PEM-блок.
)
