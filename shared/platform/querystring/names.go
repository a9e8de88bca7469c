package querystring

import "github.com/iancoleman/strcase"

// NameMapper traduce nombres de campo entre la convención interna y la del cable.
type NameMapper interface {
	ToWire(field string) string
	FromWire(param string) string
}

type snakeNames struct{}

// SnakeNames usa camelCase internamente y snake_case en el cable.
// Los acrónimos no sobreviven la ida y vuelta (userID → user_id → userId).
var SnakeNames NameMapper = snakeNames{}

func (snakeNames) ToWire(field string) string   { return strcase.ToSnake(field) }
func (snakeNames) FromWire(param string) string { return strcase.ToLowerCamel(param) }

type identityNames struct{}

// IdentityNames no transforma los nombres.
var IdentityNames NameMapper = identityNames{}

func (identityNames) ToWire(field string) string   { return field }
func (identityNames) FromWire(param string) string { return param }

// ConvertKeys devuelve una copia de r con las claves traducidas por fn.
func ConvertKeys(r map[string]any, fn func(string) string) map[string]any {
	if r == nil {
		return nil
	}
	out := make(map[string]any, len(r))
	for k, v := range r {
		out[fn(k)] = v
	}
	return out
}
