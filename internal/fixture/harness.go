package fixture

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"text/template"

	"vcheck/internal/domain"
)

// DefaultContractName is the deployed contract name used in exported harnesses
const DefaultContractName = "Contract"

// assertion matches one generated Chai assertion:
//
//	await expect(contract.func_a_b(-37, -41))
//	.to.emit(contract, "Verdict")
//	.withArgs(0);
var assertion = regexp.MustCompile(`await\s+expect\(\s*contract\.(\w+)\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)\s*\)\s*\.to\.emit\(\s*contract\s*,\s*"(\w+)"\s*\)\s*\.withArgs\(\s*(-?\d+)\s*\)`)

var describe = regexp.MustCompile(`describe\(\s*"([^"]*)"`)

// ImportHarness extracts the oracle table from a generated Hardhat/Chai test file.
// All assertions must call the same function and expect the same event.
func ImportHarness(r io.Reader) (*domain.Fixture, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read harness: %w", err)
	}

	matches := assertion.FindAllStringSubmatch(string(content), -1)
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: no verdict assertions found", ErrInvalidFixture)
	}

	f := &domain.Fixture{}
	if m := describe.FindStringSubmatch(string(content)); len(m) > 1 {
		f.Name = m[1]
	}

	for i, match := range matches {
		function, event := match[1], match[4]
		if i == 0 {
			f.Function, f.Event = function, event
		} else if function != f.Function || event != f.Event {
			return nil, fmt.Errorf("%w: assertion %d calls %s/%s, expected %s/%s", ErrInvalidFixture, i+1, function, event, f.Function, f.Event)
		}

		a, err := strconv.ParseInt(match[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: assertion %d: input a: %v", ErrInvalidFixture, i+1, err)
		}
		b, err := strconv.ParseInt(match[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: assertion %d: input b: %v", ErrInvalidFixture, i+1, err)
		}
		v, err := strconv.ParseInt(match[5], 10, 64)
		if err != nil || !domain.Verdict(v).Valid() {
			return nil, fmt.Errorf("%w: assertion %d: verdict %s is not 0 or 1", ErrInvalidFixture, i+1, match[5])
		}

		f.Cases = append(f.Cases, domain.TestCase{InputA: a, InputB: b, Expected: domain.Verdict(v)})
	}

	return f, nil
}

var harnessTemplate = template.Must(template.New("harness").Parse(`const { expect } = require("chai");
describe({{printf "%q" .Name}}, function () {
it("should run", async function () {
const contract = await ethers.deployContract({{printf "%q" .Contract}});
{{range .Cases}}await expect(contract.{{$.Function}}({{.InputA}}, {{.InputB}}))
.to.emit(contract, "{{$.Event}}")
.withArgs({{printf "%d" .Expected}});
{{end}}});
});
`))

// ExportHarness writes f as a Hardhat/Chai test that deploys contractName and
// asserts every case. ImportHarness reads the result back unchanged.
func ExportHarness(w io.Writer, f *domain.Fixture, contractName string) error {
	if contractName == "" {
		contractName = DefaultContractName
	}
	name := f.Name
	if name == "" {
		name = "MyTest"
	}
	data := struct {
		Name     string
		Contract string
		Function string
		Event    string
		Cases    []domain.TestCase
	}{
		Name:     name,
		Contract: contractName,
		Function: f.FunctionName(),
		Event:    f.EventName(),
		Cases:    f.Cases,
	}
	if err := harnessTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render harness: %w", err)
	}
	return nil
}
