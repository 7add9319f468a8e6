package cache

import (
	"net/url"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// QueryKey construye una clave estable para un conjunto de parámetros:
// los valores se ordenan por nombre (url.Values.Encode) y se resumen con xxhash.
func QueryKey(prefix string, params url.Values) string {
	return prefix + strconv.FormatUint(xxhash.Sum64String(params.Encode()), 16)
}
