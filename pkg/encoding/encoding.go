package encoding

import (
	"strings"
	"sync"
)

// Codec defines the interface used to encode and decode payloads crossing
// the admin API boundary.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// Name returns the name of the Codec implementation. The returned
	// string will be used as part of content-type negotiation, so it must
	// be unique and lowercase.
	Name() string
}

var (
	mu           sync.RWMutex
	registry     = make(map[string]Codec)
	defaultCodec Codec
)

// RegisterCodec registers the provided Codec for use with all transports.
func RegisterCodec(codec Codec) {
	if codec == nil {
		panic("cannot register a nil Codec")
	}
	if codec.Name() == "" {
		panic("cannot register Codec with empty name")
	}

	mu.Lock()
	defer mu.Unlock()
	registry[strings.ToLower(codec.Name())] = codec
}

// GetCodec returns the Codec registered under name, or nil.
func GetCodec(name string) Codec {
	mu.RLock()
	defer mu.RUnlock()
	return registry[strings.ToLower(name)]
}

// SetDefaultCodec sets the codec used when no explicit negotiation happened.
func SetDefaultCodec(codec Codec) {
	mu.Lock()
	defer mu.Unlock()
	defaultCodec = codec
}

// GetDefaultCodec returns the default codec.
func GetDefaultCodec() Codec {
	mu.RLock()
	defer mu.RUnlock()
	return defaultCodec
}
