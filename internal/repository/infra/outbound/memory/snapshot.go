package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

// SaveSnapshot escribe todas las colecciones en un fichero JSON.
func (d *Database) SaveSnapshot(ctx context.Context, path string) error {
	conn, err := d.Acquire(ctx)
	if err != nil {
		return err
	}
	defer d.Release(conn)

	data, err := json.MarshalIndent(d.collections, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadDatabase lee un fichero generado por SaveSnapshot. Si no existe o está
// vacío devuelve una base vacía. Los enteros se leen como int64.
func LoadDatabase(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDatabase(nil), nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return NewDatabase(nil), nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	collections := make(map[string][]query.Record, len(raw))
	for resource, records := range raw {
		decoded, err := query.UnmarshalRecords(records)
		if err != nil {
			return nil, fmt.Errorf("snapshot collection %s: %w", resource, err)
		}
		collections[resource] = decoded
	}
	return NewDatabase(collections), nil
}
