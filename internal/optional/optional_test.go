package optional

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name   Field[string] `json:"name"`
	IsRead Field[bool]   `json:"isRead"`
}

func TestField_ThreeStates(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantSet    bool
		wantNull   bool
		wantIsRead Field[bool]
	}{
		{
			name:       "absent keys stay unset",
			body:       `{}`,
			wantIsRead: Field[bool]{},
		},
		{
			name:       "explicit null is set and null",
			body:       `{"name": null, "isRead": null}`,
			wantSet:    true,
			wantNull:   true,
			wantIsRead: Field[bool]{Set: true, Null: true},
		},
		{
			name:       "false is a present value",
			body:       `{"name": "", "isRead": false}`,
			wantSet:    true,
			wantIsRead: Field[bool]{Set: true, Value: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))

			assert.Equal(t, tt.wantSet, p.Name.Set)
			assert.Equal(t, tt.wantNull, p.Name.Null)
			assert.Equal(t, tt.wantIsRead, p.IsRead)
		})
	}
}

func TestField_PresentFalseDiffersFromAbsent(t *testing.T) {
	var sent, omitted payload
	require.NoError(t, json.Unmarshal([]byte(`{"isRead": false}`), &sent))
	require.NoError(t, json.Unmarshal([]byte(`{}`), &omitted))

	v, ok := sent.IsRead.Get()
	assert.True(t, ok)
	assert.False(t, v)

	_, ok = omitted.IsRead.Get()
	assert.False(t, ok)
}

func TestField_TypeMismatchIsAnError(t *testing.T) {
	var p payload
	err := json.Unmarshal([]byte(`{"isRead": "yes"}`), &p)
	assert.Error(t, err)
}

func TestField_Marshal(t *testing.T) {
	type out struct {
		Name Field[string] `json:"name,omitzero"`
		Tag  Field[string] `json:"tag"`
	}

	b, err := json.Marshal(out{Tag: Some("go")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tag":"go"}`, string(b))

	b, err = json.Marshal(out{Name: Null[string](), Tag: Some("go")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":null,"tag":"go"}`, string(b))
}
