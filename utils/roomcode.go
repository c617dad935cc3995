package utils

import "math/rand"

// Room codes are short and alphanumeric so players can read them out loud.
const roomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func NewRoomCode(length int) string {
	code := make([]byte, length)
	for i := range code {
		code[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(code)
}
