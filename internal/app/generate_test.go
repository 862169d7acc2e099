package app

import (
	"os"
	"os/user"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tacogips/nodestage/internal/stage/model"
	"github.com/tacogips/nodestage/internal/stage/stagetest"
)

func TestGenerateConfig(t *testing.T) {
	f := newFixture(t, "casper")
	stagetest.StageVersion(t, f.layout, "casper", "1_0_0")
	require.NoError(t, os.Remove(f.layout.ConfigFile("1_0_0")))

	result, err := GenerateConfig(GenerateOptions{Session: f.session, Services: f.svc, Version: "1_0_0"})
	require.NoError(t, err)
	assert.Equal(t, f.layout.ConfigFile("1_0_0"), result.Path)
	assert.False(t, result.Sibling)

	// second run must not clobber the file just written
	result, err = GenerateConfig(GenerateOptions{Session: f.session, Services: f.svc, Version: "1_0_0"})
	require.NoError(t, err)
	assert.Equal(t, f.layout.ConfigFile("1_0_0")+".new", result.Path)
	assert.True(t, result.Sibling)
}

func TestGenerateConfigErrors(t *testing.T) {
	f := newFixture(t, "casper")

	_, err := GenerateConfig(GenerateOptions{Session: f.session, Services: f.svc, Version: "../x"})
	assert.True(t, IsType(err, ValidationFailed))

	_, err = GenerateConfig(GenerateOptions{Session: f.session, Services: f.svc, Version: "9_9_9"})
	assert.True(t, IsType(err, RenderFailed))
	assert.True(t, model.IsKind(err, model.PreconditionViolation))

	f.session.Address = ""
	_, err = GenerateConfig(GenerateOptions{Session: f.session, Services: f.svc, Version: "1_0_0"})
	assert.True(t, IsType(err, ValidationFailed))
}

func TestKnownAddresses(t *testing.T) {
	f := newFixture(t, "casper")
	stagetest.StageVersion(t, f.layout, "casper", "1_0_0")
	stagetest.WriteFile(t, f.layout.ConfigFile("1_0_0"),
		"[network]\nknown_addresses = ['1.1.1.1:35000', '2.2.2.2:35000']\n")

	addrs, err := KnownAddresses(f.session, f.svc, "1_0_0")
	require.NoError(t, err)
	assert.Equal(t, []string{"1.1.1.1:35000", "2.2.2.2:35000"}, addrs)

	stagetest.WriteFile(t, f.layout.ConfigFile("1_0_0"), "[network]\nknown_addresses = '1.1.1.1'\n")
	_, err = KnownAddresses(f.session, f.svc, "1_0_0")
	assert.True(t, model.IsKind(err, model.MalformedArrayValue))

	stagetest.WriteFile(t, f.layout.ConfigFile("1_0_0"), "[network]\n")
	_, err = KnownAddresses(f.session, f.svc, "1_0_0")
	assert.True(t, model.IsKind(err, model.PreconditionViolation))
}

func TestUnstageProtocol(t *testing.T) {
	f := newFixture(t, "casper")
	stagetest.StageVersion(t, f.layout, "casper", "1_0_0")

	result, err := UnstageProtocol(UnstageOptions{Services: f.svc, Version: "1_0_0"})
	require.NoError(t, err)
	assert.Len(t, result.Removed, 2)
	assert.NoDirExists(t, f.layout.ConfigDir("1_0_0"))
	assert.NoDirExists(t, f.layout.BinDir("1_0_0"))

	_, err = UnstageProtocol(UnstageOptions{Services: f.svc, Version: ""})
	assert.True(t, IsType(err, ValidationFailed))
}

func TestUserVerifier(t *testing.T) {
	as := func(name string) func() (*user.User, error) {
		return func() (*user.User, error) { return &user.User{Username: name}, nil }
	}

	v := &UserVerifier{Required: "root", current: as("root")}
	assert.NoError(t, v.Verify())

	v = &UserVerifier{Required: "root", current: as("casper")}
	err := v.Verify()
	assert.True(t, IsType(err, PreconditionFailed))
	assert.Contains(t, err.Error(), `"casper"`)

	v = &UserVerifier{current: as("anyone")}
	assert.NoError(t, v.Verify())
}
