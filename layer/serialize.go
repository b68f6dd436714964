package layer

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/paintcore"
)

// recordFormat is the current serialization format version. Older versions
// are migrated on decode; newer versions are rejected.
const recordFormat = 1

// record is the versioned, self-describing serialized form of a layer.
// Pixel content travels as PNG bytes so the record stays compact and
// self-contained; geometry and metadata are msgpack fields.
type record struct {
	Format   int        `msgpack:"format"`
	ID       string     `msgpack:"id"`
	Kind     uint8      `msgpack:"kind"`
	Name     string     `msgpack:"name"`
	X        float64    `msgpack:"x"`
	Y        float64    `msgpack:"y"`
	Rotation float64    `msgpack:"rot"`
	ScaleX   float64    `msgpack:"sx"`
	ScaleY   float64    `msgpack:"sy"`
	Opacity  float64    `msgpack:"opacity"`
	Blend    uint8      `msgpack:"blend"`
	Visible  bool       `msgpack:"visible"`
	Locked   bool       `msgpack:"locked"`
	ParentID string     `msgpack:"parent,omitempty"`
	Effects  EffectList `msgpack:"effects,omitempty"`
	Source   []byte     `msgpack:"source,omitempty"`
	Width    int        `msgpack:"w"`
	Height   int        `msgpack:"h"`
	PNG      []byte     `msgpack:"png,omitempty"`
}

// Serialize encodes the layer, including pixel content, into a versioned
// record sufficient for exact reconstruction.
func (l *Layer) Serialize() ([]byte, error) {
	rec := record{
		Format:   recordFormat,
		ID:       l.id,
		Kind:     uint8(l.kind),
		Name:     l.name,
		X:        l.x,
		Y:        l.y,
		Rotation: l.rotation,
		ScaleX:   l.scaleX,
		ScaleY:   l.scaleY,
		Opacity:  l.opacity,
		Blend:    uint8(l.blend),
		Visible:  l.visible,
		Locked:   l.locked,
		ParentID: l.parentID,
		Effects:  l.effects,
		Source:   l.source,
		Width:    l.buf.Width(),
		Height:   l.buf.Height(),
	}
	if !l.buf.IsEmpty() {
		png, err := l.buf.EncodePNG()
		if err != nil {
			return nil, fmt.Errorf("layer: encoding %s pixels: %w", l.id, err)
		}
		rec.PNG = png
	}
	return msgpack.Marshal(&rec)
}

// Deserialize reconstructs a layer from its serialized record, preserving
// the recorded id. Decoding the pixel payload is the restore path's decode
// step: when Deserialize returns, the layer is fully materialized.
func Deserialize(data []byte) (*Layer, error) {
	rec, buf, err := decodeRecord(data)
	if err != nil {
		return nil, err
	}
	return &Layer{
		id:       rec.ID,
		kind:     Kind(rec.Kind),
		name:     rec.Name,
		buf:      buf,
		x:        rec.X,
		y:        rec.Y,
		rotation: rec.Rotation,
		scaleX:   rec.ScaleX,
		scaleY:   rec.ScaleY,
		opacity:  rec.Opacity,
		blend:    BlendMode(rec.Blend),
		visible:  rec.Visible,
		locked:   rec.Locked,
		parentID: rec.ParentID,
		effects:  rec.Effects,
		source:   rec.Source,
	}, nil
}

// RestoreSerialized applies a serialized record to an existing layer,
// replacing buffer, geometry, and metadata. The layer's identity is kept;
// a record with a different id is rejected.
func (l *Layer) RestoreSerialized(data []byte) error {
	rec, buf, err := decodeRecord(data)
	if err != nil {
		return err
	}
	if rec.ID != l.id {
		return fmt.Errorf("layer: record id %s does not match layer %s", rec.ID, l.id)
	}
	l.kind = Kind(rec.Kind)
	l.name = rec.Name
	l.buf = buf
	l.x = rec.X
	l.y = rec.Y
	l.rotation = rec.Rotation
	l.scaleX = rec.ScaleX
	l.scaleY = rec.ScaleY
	l.opacity = rec.Opacity
	l.blend = BlendMode(rec.Blend)
	l.visible = rec.Visible
	l.locked = rec.Locked
	l.parentID = rec.ParentID
	l.effects = rec.Effects
	l.source = rec.Source
	l.version++
	return nil
}

func decodeRecord(data []byte) (*record, *paintcore.Pixmap, error) {
	var rec record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, nil, fmt.Errorf("layer: decoding record: %w", err)
	}
	if rec.Format > recordFormat {
		return nil, nil, fmt.Errorf("layer: record format %d is newer than supported %d",
			rec.Format, recordFormat)
	}
	var buf *paintcore.Pixmap
	if len(rec.PNG) > 0 {
		var err error
		buf, err = paintcore.DecodePNG(rec.PNG)
		if err != nil {
			return nil, nil, fmt.Errorf("layer: decoding %s pixels: %w", rec.ID, err)
		}
	} else {
		buf = paintcore.NewPixmap(rec.Width, rec.Height)
	}
	return &rec, buf, nil
}
