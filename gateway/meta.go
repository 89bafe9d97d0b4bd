package gateway

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/cajal-labs/mosaic/mosaic"
)

// metaSchema constrains pixels metadata documents before they are trusted
// for sizing buffers and decoding voxels.
const metaSchema = `
{
	"type": "object",
	"required": ["id", "type", "size_x", "size_y", "size_c", "size_z", "size_t"],
	"properties": {
		"id": { "type": "string", "minLength": 1 },
		"type": {
			"type": "string",
			"enum": ["uint8", "int8", "uint16", "int16", "uint32", "int32", "float32", "float64"]
		},
		"size_x": { "type": "integer", "minimum": 1 },
		"size_y": { "type": "integer", "minimum": 1 },
		"size_c": { "type": "integer", "minimum": 1 },
		"size_z": { "type": "integer", "minimum": 1 },
		"size_t": { "type": "integer", "minimum": 1 },
		"name": { "type": "string" }
	}
}`

var compiledMetaSchema = jsonschema.MustCompileString("pixels-meta.json", metaSchema)

// PixelsInfo is the parsed metadata of one pixels instance: the image
// extents and voxel storage type that drive reads.
type PixelsInfo struct {
	ID      string
	Name    string
	Type    mosaic.PixelType
	Extents mosaic.Extents
}

type pixelsMetaDoc struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	SizeX int32  `json:"size_x"`
	SizeY int32  `json:"size_y"`
	SizeC int32  `json:"size_c"`
	SizeZ int32  `json:"size_z"`
	SizeT int32  `json:"size_t"`
}

// ParsePixelsInfo validates a metadata JSON document against the pixels
// metadata schema and parses it.
func ParsePixelsInfo(data []byte) (*PixelsInfo, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("metadata is not valid JSON: %v", err)
	}
	if err := compiledMetaSchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("metadata failed schema validation: %v", err)
	}
	var meta pixelsMetaDoc
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	ptype, err := mosaic.PixelTypeByName(meta.Type)
	if err != nil {
		return nil, err
	}
	return &PixelsInfo{
		ID:      meta.ID,
		Name:    meta.Name,
		Type:    ptype,
		Extents: mosaic.Extents{meta.SizeX, meta.SizeY, meta.SizeC, meta.SizeZ, meta.SizeT},
	}, nil
}
