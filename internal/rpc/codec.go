package rpc

import (
	"google.golang.org/grpc/encoding"
	utiljson "k8s.io/apimachinery/pkg/util/json"
)

// CodecName is the content subtype of resolver calls: application/grpc+json.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return utiljson.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return utiljson.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
