//go:build ignore

// Package main generates a synthetic employee CSV for local testing.
// Usage: go run scripts/generate-employee-data.go -rows 1000 -output employee_data.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"
)

var (
	numRows   = flag.Int("rows", 1000, "Number of employee rows to generate")
	outputCSV = flag.String("output", "employee_data.csv", "Output CSV file")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
	numDupes  = flag.Int("dupes", 0, "Duplicate rows to append (exercises dedupe)")
	numBlanks = flag.Int("blanks", 0, "Rows with one blank cell (exercises null validation)")
)

// Column order matches the canonical export header.
var header = []string{
	"Employee ID", "Full Name", "Job Title", "Department", "Business Unit",
	"Gender", "Ethnicity", "Age", "Hire Date", "Annual Salary", "Bonus %",
	"Country", "City", "Exit Date",
}

// Name and value pools. ASCII only, so the file is valid in both
// iso-8859-1 and utf-8.
var (
	firstNames = []string{
		"Kai", "Robert", "Cameron", "Harper", "Miles", "Anna", "Jose",
		"Leah", "Wesley", "Noah", "Sofia", "Aiden", "Luna", "Theodore",
		"Ava", "Julian", "Emily", "Carlos", "Grace", "Ruby",
	}
	lastNames = []string{
		"Le", "Patel", "Lo", "Castillo", "Chang", "Sutton", "Barnes",
		"Huang", "Rivera", "Nguyen", "Cherry", "Banks", "Vasquez",
		"Farley", "Estrada", "Mcconnell", "Figueroa", "Salinas",
	}
	departments = []string{
		"IT", "Sales", "Finance", "Human Resources", "Engineering",
		"Marketing", "Accounting",
	}
	jobTitles = []string{
		"Analyst", "Sr Analyst", "Manager", "Sr Manager", "Director",
		"Network Administrator", "Controls Engineer", "Systems Analyst",
		"Account Representative", "Field Engineer", "Technical Writer",
	}
	businessUnits = []string{
		"Corporate", "Manufacturing", "Research and Development",
		"Speciality Products",
	}
	genders     = []string{"Male", "Female"}
	ethnicities = []string{"Asian", "Black", "Caucasian", "Latino", "Chinese"}
	locations   = map[string][]string{
		"United States": {"Seattle", "Chicago", "Columbus", "Austin", "Miami", "Phoenix"},
		"China":         {"Beijing", "Shanghai", "Chengdu", "Chongqing"},
		"Brazil":        {"Sao Paulo", "Rio de Janeiro", "Manaus"},
	}
	countries = []string{"United States", "China", "Brazil"}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	f, err := os.Create(*outputCSV)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", *outputCSV, err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing header: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generating %d rows in %s...\n", *numRows, *outputCSV)

	rows := make([][]string, 0, *numRows)
	for i := 0; i < *numRows; i++ {
		rows = append(rows, generateRow(rng, i))
	}

	// Duplicates re-use existing rows verbatim; the loader keeps the
	// first occurrence.
	for i := 0; i < *numDupes && len(rows) > 0; i++ {
		rows = append(rows, rows[rng.Intn(len(rows))])
	}

	// A blank cell (other than the dates, which coerce to unset anyway)
	// makes the whole batch fail null validation.
	for i := 0; i < *numBlanks; i++ {
		row := generateRow(rng, *numRows+i)
		row[rng.Intn(7)+1] = "" // any of Full Name..Age
		rows = append(rows, row)
	}

	for _, row := range rows {
		if err := w.Write(row); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing row: %v\n", err)
			os.Exit(1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "Error flushing CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d rows (%d duplicates, %d with blanks).\n",
		len(rows), *numDupes, *numBlanks)
}

func generateRow(rng *rand.Rand, index int) []string {
	country := pick(rng, countries)
	city := pick(rng, locations[country])
	hireDate := randomDate(rng, 2000, 2023)
	exitDate := hireDate.AddDate(0, rng.Intn(60)+6, rng.Intn(28))

	salary := 40000 + rng.Intn(180000)
	bonus := 0
	if rng.Intn(10) > 5 {
		bonus = (rng.Intn(8) + 1) * 5
	}

	return []string{
		fmt.Sprintf("E%05d", 2001+index),
		pick(rng, firstNames) + " " + pick(rng, lastNames),
		pick(rng, jobTitles),
		pick(rng, departments),
		pick(rng, businessUnits),
		pick(rng, genders),
		pick(rng, ethnicities),
		strconv.Itoa(21 + rng.Intn(44)),
		formatDate(hireDate),
		"$" + formatThousands(salary),
		strconv.Itoa(bonus) + "%",
		country,
		city,
		formatDate(exitDate),
	}
}

func pick(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

// randomDate returns a date within [startYear, endYear].
func randomDate(rng *rand.Rand, startYear, endYear int) time.Time {
	year := startYear + rng.Intn(endYear-startYear+1)
	month := time.Month(rng.Intn(12) + 1)
	day := rng.Intn(28) + 1
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// formatDate renders the slash format the loader accepts, without zero
// padding.
func formatDate(t time.Time) string {
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// formatThousands renders 92368 as "92,368".
func formatThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}
