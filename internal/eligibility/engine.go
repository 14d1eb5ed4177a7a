// Package eligibility evaluates a scheme's declarative criteria against a
// citizen's profile. Evaluation is pure domain logic: no I/O, no side
// effects, deterministic given (criteria, profile, now).
package eligibility

import (
	"fmt"
	"strings"
	"time"

	"sahakosh/internal/domain"
)

// Sentinel values that mean "criterion does not restrict eligibility".
const (
	SentinelAny = "any" // occupation, gender
	SentinelAll = "all" // caste, state, district, city
)

// Check is one criterion's evaluation: what the scheme required, what the
// citizen presented, and whether it passed. Error carries parse failures
// (bad date of birth) into the breakdown.
type Check struct {
	Required any    `json:"required"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Error    string `json:"error,omitempty"`
}

// Result is the full breakdown plus the overall verdict: the AND of every
// evaluated criterion. Criteria absent from the scheme never appear in
// Checks and never affect Eligible.
type Result struct {
	Checks   map[string]Check `json:"eligibility_check"`
	Eligible bool             `json:"eligible"`
}

// Evaluate runs every criterion present on the scheme against the citizen's
// profile attributes as of now.
func Evaluate(criteria domain.EligibilityCriteria, profile domain.PersonalInfo, now time.Time) Result {
	checks := make(map[string]Check)

	if criteria.Occupation != nil {
		checks["occupation"] = matchCheck(*criteria.Occupation, profile.Occupation, SentinelAny)
	}
	if criteria.Gender != nil {
		checks["gender"] = matchCheck(*criteria.Gender, profile.Gender, SentinelAny)
	}
	if criteria.Caste != nil {
		checks["caste"] = matchCheck(*criteria.Caste, profile.Caste, SentinelAll)
	}
	if criteria.AnnualIncome != nil {
		checks["annual_income"] = incomeCheck(*criteria.AnnualIncome, profile.AnnualIncome)
	}
	if criteria.MinAge != nil || criteria.MaxAge != nil {
		evaluateAge(checks, criteria, profile.DateOfBirth, now)
	}
	if criteria.State != nil {
		checks["state"] = locationCheck(*criteria.State, profile.Address)
	}
	if criteria.District != nil {
		checks["district"] = locationCheck(*criteria.District, profile.Address)
	}
	if criteria.City != nil {
		checks["city"] = locationCheck(*criteria.City, profile.Address)
	}

	eligible := true
	for _, check := range checks {
		if !check.Passed {
			eligible = false
			break
		}
	}
	return Result{Checks: checks, Eligible: eligible}
}

// FailedCriteria lists the criterion names that did not pass, for enrollment
// rejection messages. Order is stable.
func (r Result) FailedCriteria() []string {
	var failed []string
	for _, name := range []string{"occupation", "gender", "caste", "annual_income", "min_age", "max_age", "state", "district", "city"} {
		if check, ok := r.Checks[name]; ok && !check.Passed {
			failed = append(failed, name)
		}
	}
	return failed
}

func matchCheck(required, actual, sentinel string) Check {
	passed := strings.EqualFold(required, sentinel) || strings.EqualFold(required, actual)
	return Check{Required: required, Actual: actual, Passed: passed}
}

// incomeCheck treats the scheme value as a maximum. A citizen with no
// declared income fails every cap: absent income is unknown, not zero.
func incomeCheck(maxIncome float64, income *float64) Check {
	if income == nil {
		return Check{Required: maxIncome, Actual: nil, Passed: false}
	}
	return Check{Required: maxIncome, Actual: *income, Passed: *income <= maxIncome}
}

// locationCheck is substring containment of the required value inside the
// citizen's free-text address. Loose by design: the address is one string,
// not structured fields.
func locationCheck(required, address string) Check {
	passed := strings.EqualFold(required, SentinelAll) ||
		strings.Contains(strings.ToLower(address), strings.ToLower(required))
	return Check{Required: required, Actual: address, Passed: passed}
}

func evaluateAge(checks map[string]Check, criteria domain.EligibilityCriteria, dob string, now time.Time) {
	age, err := AgeAt(dob, now)
	if err != nil {
		msg := err.Error()
		if criteria.MinAge != nil {
			checks["min_age"] = Check{Required: *criteria.MinAge, Actual: dob, Passed: false, Error: msg}
		}
		if criteria.MaxAge != nil {
			checks["max_age"] = Check{Required: *criteria.MaxAge, Actual: dob, Passed: false, Error: msg}
		}
		return
	}
	if criteria.MinAge != nil {
		checks["min_age"] = Check{Required: *criteria.MinAge, Actual: age, Passed: age >= *criteria.MinAge}
	}
	if criteria.MaxAge != nil {
		checks["max_age"] = Check{Required: *criteria.MaxAge, Actual: age, Passed: age <= *criteria.MaxAge}
	}
}

// dobLayouts are tried in order; day-first formats take priority, with ISO
// as a fallback for records imported from other systems.
var dobLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"02.01.2006",
	"2006-01-02",
}

// AgeAt computes completed years between a day-first date-of-birth string
// and now: the year difference, minus one when now's month/day precedes the
// birth month/day.
func AgeAt(dob string, now time.Time) (int, error) {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return 0, fmt.Errorf("date of birth is empty")
	}
	var birth time.Time
	var err error
	for _, layout := range dobLayouts {
		birth, err = time.Parse(layout, dob)
		if err == nil {
			break
		}
	}
	if err != nil {
		return 0, fmt.Errorf("unparseable date of birth %q", dob)
	}

	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age, nil
}
