package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalValueTagged(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		want  string
	}{
		{"null", Null{}, `{"kind":"null"}`},
		{"string", String("x<y>"), `{"kind":"string","value":"x<y>"}`},
		{"int", Int(-42), `{"kind":"int","value":-42}`},
		{"bool", Bool(true), `{"kind":"bool","value":true}`},
		{"double", Double(0.5), `{"kind":"double","value":0.5}`},
		{"bytes", Bytes("hi"), `{"kind":"bytes","value":"aGk="}`},
		{"timestamp", Timestamp(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), `{"kind":"timestamp","value":"2024-01-02T03:04:05Z"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalValue(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalValueList(t *testing.T) {
	l, err := NewList(KindString, String("x"), String("y"))
	require.NoError(t, err)

	got, err := MarshalValue(l)
	require.NoError(t, err)
	assert.Equal(t, `{"elem":"string","kind":"list","value":["x","y"]}`, string(got))
}

func TestMarshalValueReference(t *testing.T) {
	ref := NewReference(RecordID{RecordName: "a1", Zone: ZoneID{ZoneName: "AuthorsZone", OwnerName: DefaultOwnerName}})

	got, err := MarshalValue(ref)
	require.NoError(t, err)
	assert.Equal(t,
		`{"kind":"reference","value":{"action":"none","recordID":{"recordName":"a1","zoneID":{"ownerName":"__defaultOwner__","zoneName":"AuthorsZone"}}}}`,
		string(got))
}

func TestMarshalValueRejectsNaN(t *testing.T) {
	_, err := MarshalValue(Double(nan()))
	require.Error(t, err)
}

func TestUnmarshalValueRoundTrip(t *testing.T) {
	list, err := NewList(KindTimestamp,
		Timestamp(time.Date(2023, 5, 6, 7, 8, 9, 123000000, time.UTC)),
		Timestamp(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
	)
	require.NoError(t, err)

	values := []Value{
		Null{},
		String("héllo"),
		Int(9007199254740993), // > 2^53, must not lose precision
		Bool(false),
		Double(-1.25),
		Bytes{0x00, 0xff},
		list,
		Asset{Name: "att-1", BlobKey: "assets/att-1", Size: 12, ContentType: "image/png", Checksum: "abc"},
		NewReference(RecordID{RecordName: "7", Zone: DefaultZone()}),
	}

	for _, v := range values {
		t.Run(string(v.Kind()), func(t *testing.T) {
			data, err := MarshalValue(v)
			require.NoError(t, err)

			got, err := UnmarshalValue(data)
			require.NoError(t, err)
			assert.Equal(t, v, got)
		})
	}
}

func TestUnmarshalValueErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing kind", `{"value":1}`},
		{"missing payload", `{"kind":"string"}`},
		{"float tagged int", `{"kind":"int","value":1.5}`},
		{"unknown kind", `{"kind":"decimal","value":"1"}`},
		{"mixed list", `{"kind":"list","elem":"int","value":[1,"a"]}`},
		{"non-scalar list", `{"kind":"list","elem":"asset","value":[]}`},
		{"bad timestamp", `{"kind":"timestamp","value":"yesterday"}`},
		{"bad base64", `{"kind":"bytes","value":"!!"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalValue([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalReferenceDefaultsAction(t *testing.T) {
	v, err := UnmarshalValue([]byte(`{"kind":"reference","value":{"recordID":{"recordName":"x","zoneID":{"zoneName":"z","ownerName":"o"}}}}`))
	require.NoError(t, err)

	ref, ok := v.(Reference)
	require.True(t, ok)
	assert.Equal(t, ActionNone, ref.Action)
	assert.Equal(t, "x", ref.ID.RecordName)
}

func TestRecordJSONRoundTrip(t *testing.T) {
	r := New("Note", RecordID{RecordName: "abc123", Zone: ZoneID{ZoneName: "NotesZone", OwnerName: DefaultOwnerName}})
	r.Set("title", String("hello"))
	r.SetNull("author")
	tags, err := NewList(KindString, String("x"), String("y"))
	require.NoError(t, err)
	r.Set("tags", tags)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, r.Type, got.Type)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, r.Fields, got.Fields)
}

func TestRecordJSONKeepsDecomposedStrings(t *testing.T) {
	r := New("Note", RecordID{RecordName: "cafe\u0301", Zone: ZoneID{ZoneName: "NotesZone", OwnerName: DefaultOwnerName}})
	r.Set("title", String("e\u0301"))
	tags, err := NewList(KindString, String("a\u030a"))
	require.NoError(t, err)
	r.Set("tags", tags)

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "cafe\u0301", got.ID.RecordName)
	assert.Equal(t, r.Fields, got.Fields)

	v, err := MarshalValue(String("e\u0301"))
	require.NoError(t, err)
	back, err := UnmarshalValue(v)
	require.NoError(t, err)
	assert.Equal(t, String("e\u0301"), back)
}

func TestRecordUnmarshalRequiresType(t *testing.T) {
	var r Record
	err := json.Unmarshal([]byte(`{"recordID":{"recordName":"x"},"fields":{}}`), &r)
	require.Error(t, err)
}
