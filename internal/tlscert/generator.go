// Package tlscert выпускает самоподписанные сертификаты для запуска сервера по https.
package tlscert

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net"
	"time"
)

const certValidity = 10 * 365 * 24 * time.Hour

// Generator генератор самоподписанных сертификатов. Хранит шаблон, который
// копируется при каждой генерации.
type Generator struct {
	template x509.Certificate
	now      func() time.Time
}

// New создает генератор с шаблоном по умолчанию:
//   - Организация: "shortlinks"
//   - Хосты: localhost, 127.0.0.1, ::1
//   - Срок действия: 10 лет
//   - Назначение: серверная аутентификация.
func New() *Generator {
	return &Generator{
		template: x509.Certificate{
			Subject: pkix.Name{
				Organization: []string{"shortlinks"},
				CommonName:   "localhost",
			},
			DNSNames: []string{"localhost"},
			IPAddresses: []net.IP{
				net.IPv4(127, 0, 0, 1), //nolint:mnd
				net.IPv6loopback,
			},
			ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
			KeyUsage:              x509.KeyUsageDigitalSignature,
			BasicConstraintsValid: true,
		},
		now: time.Now,
	}
}

// Modifier модификатор для изменения параметров сертификата.
type Modifier struct {
	apply func(*x509.Certificate)
}

// Modify создает новый модификатор сертификата.
// Модификатор применяется к копии шаблона перед генерацией.
func Modify(fn func(*x509.Certificate)) Modifier {
	return Modifier{apply: fn}
}

// Generate генерирует новую пару сертификат/приватный ключ в формате PEM.
//
// Параметры:
//   - modifiers: модификаторы шаблона
//
// Возвращает:
//   - []byte: сертификат
//   - []byte: приватный ключ
//   - error: ошибка генерации
func (g *Generator) Generate(modifiers ...Modifier) ([]byte, []byte, error) {
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128)) //nolint:mnd
	if err != nil {
		return nil, nil, fmt.Errorf("generate serial number: %w", err)
	}

	cert := g.template
	cert.SerialNumber = serial
	cert.NotBefore = g.now().Add(-time.Minute)
	cert.NotAfter = cert.NotBefore.Add(certValidity)
	for _, m := range modifiers {
		m.apply(&cert)
	}

	privKey, errGenPrivKey := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if errGenPrivKey != nil {
		return nil, nil, fmt.Errorf("generate private key: %w", errGenPrivKey)
	}
	certBytes, errGenCert := x509.CreateCertificate(rand.Reader, &cert, &cert, &privKey.PublicKey, privKey)
	if errGenCert != nil {
		return nil, nil, fmt.Errorf("generate certificate: %w", errGenCert)
	}
	keyBytes, errMarshal := x509.MarshalECPrivateKey(privKey)
	if errMarshal != nil {
		return nil, nil, fmt.Errorf("marshal private key: %w", errMarshal)
	}

	certPEM, errCertPEM := pemEncode("CERTIFICATE", certBytes)
	if errCertPEM != nil {
		return nil, nil, errCertPEM
	}
	keyPEM, errKeyPEM := pemEncode("EC PRIVATE KEY", keyBytes)
	if errKeyPEM != nil {
		return nil, nil, errKeyPEM
	}
	return certPEM, keyPEM, nil
}

// CheckPemFiles проверяет PEM-данные сертификата и приватного ключа.
//
// Возможные ошибки:
//   - ErrBlankPEM: пустые данные
//   - ErrNotCertificate: в файле сертификата не сертификат
//   - ErrKeyMismatch: ключ не подходит к сертификату или не разбирается
//   - ErrCertExpired: срок действия сертификата истек
//   - ErrCertNotValidYet: сертификат еще не вступил в силу
func (g *Generator) CheckPemFiles(certSource io.Reader, keySource io.Reader) error {
	certBytes, errReadCert := io.ReadAll(certSource)
	if errReadCert != nil {
		return fmt.Errorf("read certificate: %w", errReadCert)
	}
	keyBytes, errReadKey := io.ReadAll(keySource)
	if errReadKey != nil {
		return fmt.Errorf("read private key: %w", errReadKey)
	}
	if len(bytes.TrimSpace(certBytes)) == 0 || len(bytes.TrimSpace(keyBytes)) == 0 {
		return ErrBlankPEM
	}

	block, _ := pem.Decode(certBytes)
	if block == nil || block.Type != "CERTIFICATE" {
		return ErrNotCertificate
	}
	cert, errParseCert := x509.ParseCertificate(block.Bytes)
	if errParseCert != nil {
		return fmt.Errorf("parse certificate: %w", errParseCert)
	}

	if _, errPair := tls.X509KeyPair(certBytes, keyBytes); errPair != nil {
		return errors.Join(ErrKeyMismatch, errPair)
	}

	now := g.now()
	if cert.NotBefore.After(now) {
		return ErrCertNotValidYet
	}
	if cert.NotAfter.Before(now) {
		return ErrCertExpired
	}
	return nil
}

func pemEncode(blockType string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := pem.Encode(&buf, &pem.Block{Type: blockType, Bytes: data}); err != nil {
		return nil, fmt.Errorf("pem encode %s: %w", blockType, err)
	}
	return buf.Bytes(), nil
}
