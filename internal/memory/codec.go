package memory

import (
	"io"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var (
	compactJSON = jsoniter.Config{EscapeHTML: false}.Froze()
	indentJSON  = jsoniter.Config{EscapeHTML: false, IndentionStep: 2}.Froze()
)

// MarshalJSON writes the profile as a JSON object in insertion order.
func (p Profile) MarshalJSON() ([]byte, error) {
	stream := compactJSON.BorrowStream(nil)
	defer compactJSON.ReturnStream(stream)
	writeProfile(stream, p)
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON reads a JSON object keeping key order. Non-string values are
// kept in their JSON text form.
func (p *Profile) UnmarshalJSON(b []byte) error {
	iter := compactJSON.BorrowIterator(b)
	defer compactJSON.ReturnIterator(iter)
	out, err := readProfile(iter)
	if err != nil {
		return err
	}
	*p = out
	return nil
}

func writeProfile(stream *jsoniter.Stream, p Profile) {
	if len(p) == 0 {
		stream.WriteEmptyObject()
		return
	}
	stream.WriteObjectStart()
	for i, e := range p {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(e.Key)
		stream.WriteString(e.Value)
	}
	stream.WriteObjectEnd()
}

func writeStrings(stream *jsoniter.Stream, list []string) {
	if len(list) == 0 {
		stream.WriteEmptyArray()
		return
	}
	stream.WriteArrayStart()
	for i, s := range list {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteString(s)
	}
	stream.WriteArrayEnd()
}

func readProfile(iter *jsoniter.Iterator) (Profile, error) {
	var out Profile
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		out = append(out, ProfileEntry{Key: key, Value: readScalar(it)})
		return it.Error == nil
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return nil, errors.Wrap(iter.Error, "decode profile")
	}
	return out, nil
}

func readScalar(it *jsoniter.Iterator) string {
	switch it.WhatIsNext() {
	case jsoniter.StringValue:
		return it.ReadString()
	case jsoniter.NumberValue:
		return it.ReadNumber().String()
	case jsoniter.BoolValue:
		return strconv.FormatBool(it.ReadBool())
	case jsoniter.NilValue:
		it.ReadNil()
		return ""
	default:
		return string(it.SkipAndReturnBytes())
	}
}

// encodeData writes the memory document with two-space indentation.
func encodeData(d Data) ([]byte, error) {
	stream := indentJSON.BorrowStream(nil)
	defer indentJSON.ReturnStream(stream)

	stream.WriteObjectStart()
	stream.WriteObjectField("profile")
	writeProfile(stream, d.Profile)
	stream.WriteMore()
	stream.WriteObjectField("preferences")
	writeStrings(stream, d.Preferences)
	stream.WriteMore()
	stream.WriteObjectField("facts")
	writeStrings(stream, d.Facts)
	stream.WriteObjectEnd()
	stream.WriteRaw("\n")

	if stream.Error != nil {
		return nil, errors.Wrap(stream.Error, "encode memory")
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// decodeData parses a memory document. Unknown top-level keys are ignored and
// missing sections stay empty.
func decodeData(b []byte) (Data, error) {
	iter := compactJSON.BorrowIterator(b)
	defer compactJSON.ReturnIterator(iter)

	var d Data
	var perr error
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		switch key {
		case "profile":
			d.Profile, perr = readProfile(it)
		case "preferences":
			it.ReadVal(&d.Preferences)
		case "facts":
			it.ReadVal(&d.Facts)
		default:
			it.Skip()
		}
		return perr == nil && it.Error == nil
	})
	if perr != nil {
		return Data{}, perr
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return Data{}, errors.Wrap(iter.Error, "decode memory")
	}
	return d, nil
}
