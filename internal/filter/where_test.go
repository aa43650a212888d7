package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vburojevic/journalq/internal/domain"
)

func TestWhereMatch(t *testing.T) {
	e := nginx("upstream timed out (110: Connection timed out)", domain.PriorityError)

	tests := []struct {
		expr string
		want bool
	}{
		{`unit=nginx.service`, true},
		{`unit!=nginx.service`, false},
		{`host=web-1`, true},
		{`hostname^web`, true},
		{`unit$.service`, true},
		{`message~timed`, true},
		{`msg~/TIMED/i`, true},
		{`msg~/TIMED/`, false},
		{`message!~refused`, true},
		{`message~"Connection timed"`, true},
		{`message='upstream timed out (110: Connection timed out)'`, true},
		{`priority<=err`, true},
		{`priority<=warning`, true},
		{`priority<=2`, false},
		{`level>=3`, true},
		{`priority=error`, true},
		{`ts>=1700000000000000`, true},
		{`ts<=1`, false},
		{`ident=nginx`, true},
		{`cursor^"s=1"`, true},
		{`unit=sshd.service || priority<=3`, true},
		{`unit=sshd.service or priority<=3`, true},
		{`unit=nginx.service && priority<=warning`, true},
		{`unit=nginx.service AND priority<=crit`, false},
		{`!(unit=sshd.service)`, true},
		{`not unit=nginx.service`, false},
		{`(host=web-2 || host=web-1) && message~/timed out/`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			w, err := NewWhere(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Match(e))
		})
	}
}

func TestWhereMultipleExpressionsAreAnded(t *testing.T) {
	w, err := NewWhere("unit=nginx.service", "priority<=err")
	require.NoError(t, err)
	assert.True(t, w.Match(nginx("x", domain.PriorityError)))
	assert.False(t, w.Match(nginx("x", domain.PriorityInfo)))
}

func TestWhereNilMatchesAll(t *testing.T) {
	var w *Where
	assert.True(t, w.Match(nginx("x", 6)))

	w, err := NewWhere()
	require.NoError(t, err)
	assert.True(t, w.Match(nginx("x", 6)))
}

func TestWhereErrors(t *testing.T) {
	tests := []struct {
		expr string
		msg  string
	}{
		{`unit`, "expected operator"},
		{`unit=`, "expected value"},
		{`=x`, "expected field name"},
		{`color=red`, "unknown field"},
		{`message~/(/`, "invalid regex"},
		{`message~/x`, "unterminated regex"},
		{`message~/x/q`, "unsupported regex flag"},
		{`message="x`, "unterminated string"},
		{`unit=a & unit=b`, "unexpected"},
		{`priority<=loud`, "invalid priority"},
		{`ts>=soon`, "invalid number"},
		{`(unit=a`, "expected ')'"},
		{`unit=a unit=b`, "unexpected"},
		{`priority>3`, "use >="},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := NewWhere(tt.expr)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func FuzzNewWhere(f *testing.F) {
	f.Add(`unit=nginx.service`)
	f.Add(`(priority<=err OR unit=sshd.service) AND message~/timeout|refused/i`)
	f.Add(`ts>=123 && host^web`)
	f.Add(`!message~"hello"`)
	f.Add(`unterminated"`)

	e := nginx("timeout while connecting", domain.PriorityError)
	f.Fuzz(func(t *testing.T, expr string) {
		w, err := NewWhere(expr)
		if err != nil {
			return
		}
		_ = w.Match(e)
	})
}

func BenchmarkWhereMatch(b *testing.B) {
	w, _ := NewWhere("priority<=err", "message~timeout", "unit=nginx.service")
	e := nginx("network timeout occurred", domain.PriorityError)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = w.Match(e)
	}
}
