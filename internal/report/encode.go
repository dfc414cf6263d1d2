package report

import (
	"encoding/json"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// JSON writes out as indented JSON.
func JSON(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Msgpack writes out as one MessagePack document.
func Msgpack(w io.Writer, out Output) error {
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	return enc.Encode(out)
}

// DecodeMsgpack reads an Output written by Msgpack.
func DecodeMsgpack(r io.Reader) (Output, error) {
	var out Output
	err := msgpack.NewDecoder(r).Decode(&out)
	return out, err
}
