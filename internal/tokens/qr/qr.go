package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"assessment-gateway/internal/models"

	"github.com/skip2/go-qrcode"
)

// Generator produces QR codes that carry a guest's access link. The token
// payload is AES encrypted so the QR image itself does not leak the raw
// bearer secret.
type Generator struct {
	secret  []byte
	baseURL string
}

type accessPayload struct {
	Token          string `json:"token"`
	AssessmentType string `json:"assessment_type"`
	URL            string `json:"url"`
}

func NewGenerator(secret, baseURL string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{secret: hashed[:], baseURL: baseURL}
}

// AccessURL is the link a guest follows to start their assessment.
func (g *Generator) AccessURL(token models.GuestAccessToken) string {
	return fmt.Sprintf("%s/%s?token=%s", g.baseURL, token.AssessmentType, token.Token)
}

// GenerateAccessQR encodes the encrypted access payload as a 256px PNG.
func (g *Generator) GenerateAccessQR(token models.GuestAccessToken) ([]byte, error) {
	payload := accessPayload{
		Token:          token.Token,
		AssessmentType: token.AssessmentType,
		URL:            g.AccessURL(token),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	encrypted, err := encryptAES(data, g.secret)
	if err != nil {
		return nil, err
	}

	return qrcode.Encode(encrypted, qrcode.Medium, 256)
}

func encryptAES(data []byte, key []byte) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	ciphertext := make([]byte, aes.BlockSize+len(data))
	iv := ciphertext[:aes.BlockSize]

	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	stream := cipher.NewCFBEncrypter(block, iv)
	stream.XORKeyStream(ciphertext[aes.BlockSize:], data)

	return base64.URLEncoding.EncodeToString(ciphertext), nil
}
