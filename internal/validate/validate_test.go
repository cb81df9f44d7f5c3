package validate

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MalithGihan/flowviz-service/pkg/types"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func TestDocument(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		ok    bool
		field string
	}{
		{"valid", `{"nodes":[{"id":"A","label":"A","count":1}],"edges":[{"from":"A","to":"A","count":2,"durationLabel":"2\n1s"}]}`, true, ""},
		{"empty collections", `{"nodes":[],"edges":[]}`, true, ""},
		{"missing edges", `{"nodes":[]}`, false, ""},
		{"empty node id", `{"nodes":[{"id":""}],"edges":[]}`, false, "nodes.0.id"},
		{"fractional count", `{"nodes":[],"edges":[{"from":"A","to":"B","count":1.5}]}`, false, "edges.0.count"},
		{"missing target", `{"nodes":[],"edges":[{"from":"A"}]}`, false, "edges.0"},
		{"bad style", `{"nodes":[],"edges":[{"from":"A","to":"B","style":"dotted"}]}`, false, "edges.0.style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Document(decode(t, tt.doc))
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParams(t *testing.T) {
	assert.NoError(t, Params(types.DisplayParameters{LabelMode: types.LabelTime, PowerPercent: 0}))
	assert.NoError(t, Params(types.DefaultDisplayParameters()))

	err := Params(types.DisplayParameters{LabelMode: types.LabelEvents, PowerPercent: 101})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "powerPercent", ve.Field)

	err = Params(types.DisplayParameters{LabelMode: "hours", PowerPercent: 50})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "labelMode", ve.Field)

	err = Params(types.DisplayParameters{PowerPercent: -1})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidationError(t *testing.T) {
	assert.Equal(t, "validation error: edges.0.to: node \"Z\" is not defined",
		Errorf("edges.0.to", "node %q is not defined", "Z").Error())
	assert.Equal(t, "validation error: bad", (&ValidationError{Msg: "bad"}).Error())
}
