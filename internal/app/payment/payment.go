// Package payment контракт платежного шлюза: проверка подписи входящего
// колбека и инициация платежа.
package payment

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sort"
	"strings"
)

// Sign подпись над канонической формой полей: ключи сортируются,
// значения конкатенируются через ":", в конец добавляется общий секрет,
// от всего берется sha256. Поля metadata и signature в подпись не входят,
// их исключает вызывающая сторона.
func Sign(fields map[string]string, secret string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, fields[k])
	}
	parts = append(parts, secret)

	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// Verify сравнение за константное время
func Verify(fields map[string]string, signature, secret string) bool {
	want := Sign(fields, secret)
	return subtle.ConstantTimeCompare([]byte(want), []byte(signature)) == 1
}
