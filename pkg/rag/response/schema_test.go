package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelOutput(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       ModelOutput
		wantIssues bool
	}{
		{
			name: "clean json",
			raw:  `{"info": "Vai all'Ufficio Anagrafe in via Roma 1", "is_info": true}`,
			want: Structured{Info: "Vai all'Ufficio Anagrafe in via Roma 1", IsInfo: true},
		},
		{
			name: "booking intent",
			raw:  `{"info": "Puoi prenotare", "is_info": false}`,
			want: Structured{Info: "Puoi prenotare", IsInfo: false},
		},
		{
			name: "string boolean coerced",
			raw:  `{"info": "ok", "is_info": "false"}`,
			want: Structured{Info: "ok", IsInfo: false},
		},
		{
			name: "code fence and prose around",
			raw:  "```json\n{\"info\": \"ok\", \"is_info\": true}\n```",
			want: Structured{Info: "ok", IsInfo: true},
		},
		{
			name: "leading prose",
			raw:  `Ecco la risposta: {"info": "ok", "is_info": true}`,
			want: Structured{Info: "ok", IsInfo: true},
		},
		{
			name:       "prose only",
			raw:        " Certo, puoi andare in comune. ",
			want:       Degraded{Raw: "Certo, puoi andare in comune."},
			wantIssues: true,
		},
		{
			name:       "missing is_info",
			raw:        `{"info": "ok"}`,
			want:       Degraded{Raw: `{"info": "ok"}`},
			wantIssues: true,
		},
		{
			name:       "wrong type",
			raw:        `{"info": 3, "is_info": "maybe"}`,
			want:       Degraded{Raw: `{"info": 3, "is_info": "maybe"}`},
			wantIssues: true,
		},
		{
			name:       "broken json",
			raw:        `{"info": "ok", "is_info": tru}`,
			want:       Degraded{Raw: `{"info": "ok", "is_info": tru}`},
			wantIssues: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, issues := ParseModelOutput(tt.raw)
			assert.Equal(t, tt.want, got)
			if tt.wantIssues {
				require.NotEmpty(t, issues)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestFromModelOutput(t *testing.T) {
	info, isInfo, degraded := FromModelOutput(Degraded{Raw: "testo"})
	assert.Equal(t, "testo", info)
	assert.True(t, isInfo)
	assert.True(t, degraded)

	info, isInfo, degraded = FromModelOutput(Structured{Info: "a", IsInfo: false})
	assert.Equal(t, "a", info)
	assert.False(t, isInfo)
	assert.False(t, degraded)
}
