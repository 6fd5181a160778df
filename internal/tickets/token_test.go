package tickets

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTicket(t *testing.T) *Ticket {
	t.Helper()
	return &Ticket{
		ID:          uuid.New(),
		OwnerRef:    "order-42",
		Entitlement: EntitlementSingleEntry,
		ValidFrom:   time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC),
		ValidUntil:  time.Date(2026, 6, 1, 22, 0, 0, 0, time.UTC),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))
	ticket := testTicket(t)

	payload, err := codec.Encode(ticket)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload, "PKT1."))

	claims, err := codec.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, ticket.ID.String(), claims.TicketID)
	assert.Equal(t, string(EntitlementSingleEntry), claims.Entitlement)

	from, until := claims.Window()
	assert.True(t, from.Equal(ticket.ValidFrom))
	assert.True(t, until.Equal(ticket.ValidUntil))
}

func TestCodecRejectsTamperedPayload(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))
	ticket := testTicket(t)

	payload, err := codec.Encode(ticket)
	require.NoError(t, err)

	// Flip one byte in the claims segment; the seal must no longer match.
	parts := strings.Split(payload, ".")
	require.Len(t, parts, 3)

	body, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	body[0] ^= 0x01
	tampered := parts[0] + "." + base64.RawURLEncoding.EncodeToString(body) + "." + parts[2]

	claims, err := codec.Decode(tampered)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestCodecRejectsWrongSecret(t *testing.T) {
	issuing := NewCodec([]byte("issuing-secret"))
	verifying := NewCodec([]byte("some-other-secret"))

	payload, err := issuing.Encode(testTicket(t))
	require.NoError(t, err)

	_, err = verifying.Decode(payload)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestCodecRejectsMalformedPayloads(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))

	valid, err := codec.Encode(testTicket(t))
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	cases := map[string]string{
		"empty":            "",
		"missing segments": "PKT1.abc",
		"extra segment":    valid + ".extra",
		"unknown version":  "PKT9." + parts[1] + "." + parts[2],
		"garbage seal":     parts[0] + "." + parts[1] + ".!!!not-base64!!!",
		"garbage body":     parts[0] + ".!!!not-base64!!!." + parts[2],
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := codec.Decode(payload)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, ErrIntegrity)
		})
	}
}

func TestSealMatchesPayloadSegment(t *testing.T) {
	codec := NewCodec([]byte("test-secret"))
	ticket := testTicket(t)

	seal, err := codec.Seal(ticket)
	require.NoError(t, err)

	payload, err := codec.Encode(ticket)
	require.NoError(t, err)

	parts := strings.Split(payload, ".")
	assert.Equal(t, parts[2], seal)
}
