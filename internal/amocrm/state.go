package amocrm

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// StatePayload is embedded in the OAuth state parameter so the global
// callback can recover which company started the flow.
type StatePayload struct {
	CompanyID uuid.UUID `json:"cid"`
	Timestamp int64     `json:"ts"`
}

type signedState struct {
	Payload   StatePayload `json:"p"`
	Signature string       `json:"s"`
}

func b64url(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func signPayload(secret string, payload StatePayload) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(raw)
	return b64url(mac.Sum(nil)), nil
}

// EncodeState packs and signs a state parameter.
func EncodeState(secret string, payload StatePayload) (string, error) {
	sig, err := signPayload(secret, payload)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(signedState{Payload: payload, Signature: sig})
	if err != nil {
		return "", err
	}
	return b64url(raw), nil
}

// DecodeState unpacks a state parameter and verifies its signature.
func DecodeState(secret, state string) (StatePayload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		// Callbacks sometimes arrive with padding attached.
		raw, err = base64.URLEncoding.DecodeString(state)
		if err != nil {
			return StatePayload{}, fmt.Errorf("state is not base64url: %w", err)
		}
	}

	var parsed signedState
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return StatePayload{}, fmt.Errorf("state is not valid JSON: %w", err)
	}

	expected, err := signPayload(secret, parsed.Payload)
	if err != nil {
		return StatePayload{}, err
	}
	if !hmac.Equal([]byte(expected), []byte(parsed.Signature)) {
		return StatePayload{}, errors.New("invalid state signature")
	}

	return parsed.Payload, nil
}
