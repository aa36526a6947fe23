package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// verificationCodeLength is the number of hex characters exposed to ticket
// holders. The code proves authenticity without a lookup table: it is
// recomputable from stored ticket fields alone.
const verificationCodeLength = 8

// VerificationCode derives a ticket's verification code from its identity
// fields. Deterministic: the same ticket always yields the same code.
func VerificationCode(ticketID uuid.UUID, ticketNumber string, raffleID, ownerID uuid.UUID) string {
	data := fmt.Sprintf("%s-%s-%s-%s", ticketID, ticketNumber, raffleID, ownerID)
	digest := sha256.Sum256([]byte(data))
	return strings.ToUpper(hex.EncodeToString(digest[:])[:verificationCodeLength])
}
