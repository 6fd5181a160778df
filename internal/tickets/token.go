package tickets

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrIntegrity is returned for any payload that cannot be trusted: bad seal,
// malformed structure, or an unsupported format version. Callers must not
// touch the ledger for a payload that failed with ErrIntegrity.
var ErrIntegrity = errors.New("ticket payload failed integrity verification")

// payloadVersion tags the QR payload format and the seal algorithm
// (HMAC-SHA256 truncated to sealSize bytes). A new algorithm gets a new tag;
// unknown tags are rejected, never best-effort parsed.
const payloadVersion = "PKT1"

// sealSize is the number of MAC bytes embedded in the payload. 16 bytes keeps
// the payload compact enough for low-error-correction QR codes while leaving
// forgery at 2^128.
const sealSize = 16

var b64 = base64.RawURLEncoding

// TokenClaims are the fields embedded in a scannable payload. Only immutable
// ticket identity goes in here; live state (payment, redemption) is always
// read from the ledger.
type TokenClaims struct {
	TicketID    string `json:"tid"`
	ValidFrom   int64  `json:"nbf"`
	ValidUntil  int64  `json:"exp"`
	Entitlement string `json:"ent"`
}

// Codec encodes tickets into sealed QR payloads and verifies scanned ones.
type Codec struct {
	secret []byte
}

// NewCodec creates a codec sealing with the given issuing secret.
func NewCodec(secret []byte) *Codec {
	return &Codec{secret: secret}
}

// Encode produces the scannable payload for a ticket:
// PKT1.<base64url(claims JSON)>.<base64url(seal)>
func (c *Codec) Encode(t *Ticket) (string, error) {
	claims := TokenClaims{
		TicketID:    t.ID.String(),
		ValidFrom:   t.ValidFrom.Unix(),
		ValidUntil:  t.ValidUntil.Unix(),
		Entitlement: string(t.Entitlement),
	}

	body, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	encoded := payloadVersion + "." + b64.EncodeToString(body)
	seal := c.seal(encoded)
	return encoded + "." + b64.EncodeToString(seal), nil
}

// Seal returns the base64url seal for a ticket, as embedded in its payload.
// Stored on the ledger record at issuance for audit purposes.
func (c *Codec) Seal(t *Ticket) (string, error) {
	payload, err := c.Encode(t)
	if err != nil {
		return "", err
	}
	parts := strings.Split(payload, ".")
	return parts[2], nil
}

// Decode verifies a scanned payload and returns its claims. The seal is
// checked with a constant-time compare before the claims are parsed; any
// failure is ErrIntegrity with no further detail leaked to the caller.
func (c *Codec) Decode(payload string) (*TokenClaims, error) {
	parts := strings.Split(payload, ".")
	if len(parts) != 3 {
		return nil, ErrIntegrity
	}
	if parts[0] != payloadVersion {
		return nil, ErrIntegrity
	}

	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, ErrIntegrity
	}

	expected := c.seal(parts[0] + "." + parts[1])
	if !hmac.Equal(sig, expected) {
		return nil, ErrIntegrity
	}

	body, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, ErrIntegrity
	}

	var claims TokenClaims
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, ErrIntegrity
	}

	if _, err := uuid.Parse(claims.TicketID); err != nil {
		return nil, ErrIntegrity
	}
	if !Entitlement(claims.Entitlement).IsValid() {
		return nil, ErrIntegrity
	}

	return &claims, nil
}

// Window returns the validity window embedded in the claims.
func (tc *TokenClaims) Window() (time.Time, time.Time) {
	return time.Unix(tc.ValidFrom, 0).UTC(), time.Unix(tc.ValidUntil, 0).UTC()
}

func (c *Codec) seal(encoded string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(encoded))
	return mac.Sum(nil)[:sealSize]
}
