package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	in, err := ParseInput([]byte(`{
		credentials: {username: 'me@example.com', password: 'secret'},
		search: {
			query: 'chatbot',
			limit: 10,
			category: ['Web, Mobile & Software Dev'],
			hourly_min: 20,
			hires_max: 5,
			payment_verified: true,
			nbs: 1,
			custom_key: 'custom',
		},
		general: {save_csv: false},
	}`))
	require.NoError(t, err)

	assert.True(t, in.Credentials.Provided())
	assert.Equal(t, "chatbot", in.Search.Query)
	assert.Equal(t, 10, in.Search.Limit)
	assert.Equal(t, []string{"Web, Mobile & Software Dev"}, in.Search.Category)
	require.NotNil(t, in.Search.HourlyMin)
	assert.Equal(t, 20, *in.Search.HourlyMin)
	assert.Nil(t, in.Search.HourlyMax)
	assert.True(t, in.Search.PaymentVerified)
	assert.Equal(t, map[string]string{"nbs": "1", "custom_key": "custom"}, in.Search.Extra)
	assert.False(t, in.General.ShouldSaveCSV())
}

func TestParseInputRejectsGarbage(t *testing.T) {
	_, err := ParseInput([]byte(`{search: `))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr error
	}{
		{"defaults", Input{}, nil},
		{"both credentials", Input{Credentials: Credentials{Username: "u", Password: "p"}}, nil},
		{"username only", Input{Credentials: Credentials{Username: "u"}}, ErrPartialCredentials},
		{"password only", Input{Credentials: Credentials{Password: "p"}}, ErrPartialCredentials},
		{"limit too high", Input{Search: SearchFilter{Limit: 201}}, ErrLimitOutOfRange},
		{"limit negative", Input{Search: SearchFilter{Limit: -1}}, ErrLimitOutOfRange},
		{"limit max", Input{Search: SearchFilter{Limit: 200}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, SearchFilter{}.EffectiveLimit())
	assert.Equal(t, 42, SearchFilter{Limit: 42}.EffectiveLimit())
	assert.True(t, General{}.ShouldSaveCSV())
}

func TestParseInputLimitCoercion(t *testing.T) {
	tests := []struct {
		doc  string
		want int
	}{
		{`{search: {limit: 10}}`, 10},
		{`{search: {limit: "10"}}`, 10},
		{`{search: {limit: ' 25 '}}`, 25},
		{`{search: {limit: 7.0}}`, 7},
		{`{search: {limit: null}}`, 0},
		{`{search: {}}`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.doc, func(t *testing.T) {
			in, err := ParseInput([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, in.Search.Limit)
		})
	}

	_, err := ParseInput([]byte(`{search: {limit: "ten"}}`))
	assert.ErrorContains(t, err, "invalid limit")
}
