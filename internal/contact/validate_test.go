package contact

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAllEmpty(t *testing.T) {
	got := Validate(Fields{})
	require.Equal(t, Errors{
		FieldName:    "Please enter your name.",
		FieldEmail:   "Please enter your email.",
		FieldMessage: "Please enter your message.",
	}, got)
}

func TestValidateWhitespaceOnlyIsEmpty(t *testing.T) {
	got := Validate(Fields{Name: "  ", Email: "\t", Message: "\n "})
	require.Equal(t, MsgNameRequired, got[FieldName])
	require.Equal(t, MsgEmailRequired, got[FieldEmail])
	require.Equal(t, MsgMessageRequired, got[FieldMessage])
}

func TestValidateInvalidEmailOnly(t *testing.T) {
	got := Validate(Fields{Name: "A", Email: "not-an-email", Message: "hi"})
	require.Equal(t, Errors{FieldEmail: "Please enter a valid email."}, got)
}

func TestValidateAllValid(t *testing.T) {
	got := Validate(Fields{Name: "A", Email: "a@b.co", Message: "hi"})
	require.Empty(t, got)
	_, present := got[FieldName]
	require.False(t, present)
}

func TestEmailPattern(t *testing.T) {
	cases := []struct {
		email string
		valid bool
	}{
		{"a@b.co", true},
		{"First.Last@Example.COM", true},
		{"a@b.c.d", true},
		{"a@b", false},
		{"@b.co", false},
		{"a@.co", false},
		{"a@b.", false},
		{"a b@c.de", false},
		{"a@@b.co", false},
		{" a@b.co", false},
	}
	for _, tc := range cases {
		t.Run(tc.email, func(t *testing.T) {
			errs := Validate(Fields{Name: "n", Email: tc.email, Message: "m"})
			if tc.valid {
				require.Empty(t, errs)
				return
			}
			require.Equal(t, Errors{FieldEmail: MsgEmailInvalid}, errs)
		})
	}
}

func TestParseField(t *testing.T) {
	for _, f := range AllFields {
		got, ok := ParseField(string(f))
		require.True(t, ok)
		require.Equal(t, f, got)
	}
	_, ok := ParseField("phone")
	require.False(t, ok)
}
