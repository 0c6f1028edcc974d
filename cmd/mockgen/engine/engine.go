package engine

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// GeneratorConfig shapes the synthetic exports.
type GeneratorConfig struct {
	Scenario     string // "mild", "late" or "overload"
	Days         int
	ToursPerDay  int
	StopsPerTour int
	Start        time.Time
	Seed         int64
}

// Dataset holds both exports as rows, header first.
type Dataset struct {
	Tours [][]any
	Tasks [][]any
}

const (
	ToursSheet = "Tournées"
	TasksSheet = "Tâches"

	weightCapacity = 600.0
	binCapacity    = 40.0
)

// Headers carry the accents and stray spaces of real exports.
var (
	tourHeader = []any{"Nom", "Date", "Entrepôt ", "Livreur", "Poids (kg)", "Bacs", "Capacité poids (kg)", "Capacité bacs",
		"Durée (s)", "Distance (km)", "Distance réalisée (km)", "Départ prévu", "Départ réel"}
	taskHeader = []any{"Tournée", "Date", "Entrepôt", "Séquence", "Avancement", "Poids", "Bacs", "Départ", "Arrivée",
		"Arrivée approximative", "Heure d’arrivée sur site", "Heure de clôture", "Retard (s)", "Ville", "Code postal",
		"Notez votre livraison", "Mode de clôture"}
)

type place struct {
	city, postalCode string
}

var warehouses = []struct {
	name   string
	places []place
}{
	{"Paris Nord", []place{{"Saint-Denis", "93200"}, {"Aubervilliers", "93300"}, {"Paris", "75018"}}},
	{"Paris Sud", []place{{"Montrouge", "92120"}, {"Ivry-sur-Seine", "94200"}, {"Paris", "75014"}}},
	{"Lyon Est", []place{{"Villeurbanne", "69100"}, {"Bron", "69500"}, {"Lyon", "69003"}}},
}

var drivers = []string{"Alice Martin", "Bruno Petit", "Chloé Durand", "David Leroy", "Emma Moreau", "Farid Haddad"}

// Generate builds a reproducible pair of exports. Every day also carries one
// "R" backup copy of its first tour, which ingestion must drop.
func Generate(cfg GeneratorConfig) Dataset {
	if cfg.Days <= 0 {
		cfg.Days = 5
	}
	if cfg.ToursPerDay <= 0 {
		cfg.ToursPerDay = 6
	}
	if cfg.StopsPerTour <= 0 {
		cfg.StopsPerTour = 10
	}
	if cfg.Start.IsZero() {
		cfg.Start = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	ds := Dataset{Tours: [][]any{tourHeader}, Tasks: [][]any{taskHeader}}
	for d := 0; d < cfg.Days; d++ {
		day := cfg.Start.AddDate(0, 0, d)
		serial := excelDate(day)
		for i := 0; i < cfg.ToursPerDay; i++ {
			wh := warehouses[i%len(warehouses)]
			name := fmt.Sprintf("T%02d", i+1)

			departure := 7*3600 + (i%3)*1800
			driver := any(drivers[(d+i)%len(drivers)])
			if i == cfg.ToursPerDay-1 {
				// Unassigned evening round; long ones run past midnight.
				driver = ""
				departure = 20 * 3600
			}

			realizedDeparture := departure + int(rng.NormFloat64()*300)

			var plannedWeight, realizedWeight, plannedBins float64
			clock := realizedDeparture
			for s := 0; s < cfg.StopsPerTour; s++ {
				pl := wh.places[rng.Intn(len(wh.places))]
				weight := 8 + rng.Float64()*30
				bins := float64(1 + rng.Intn(3))
				plannedWeight += weight
				plannedBins += bins
				if cfg.Scenario == "overload" && i%3 == 0 {
					weight *= 1.9
				}
				realizedWeight += weight

				predicted := departure + 1200 + s*1500
				slotStart := (predicted / 7200) * 7200
				clock += 1500 + int(rng.NormFloat64()*240)
				if cfg.Scenario == "late" {
					clock += 120
				}
				arrival := clock
				closure := arrival + 180 + rng.Intn(240)

				status := "Terminée"
				channel := "Mobile"
				if rng.Float64() < 0.1 {
					channel = "Web"
				}
				var rating any = ""
				if rng.Float64() < 0.3 {
					rating = 5 - int(math.Min(4, math.Max(0, float64(arrival-slotStart-7200)/900)))
				}

				ds.Tasks = append(ds.Tasks, []any{
					name, serial, wh.name, s + 1, status, round(weight), bins,
					fraction(slotStart), fraction(slotStart + 7200), fraction(predicted), fraction(arrival), fraction(closure),
					retard(arrival, slotStart, slotStart+7200), pl.city, pl.postalCode, rating, channel,
				})
			}

			tour := []any{name, serial, wh.name, driver, round(plannedWeight), plannedBins, weightCapacity, binCapacity,
				clock - realizedDeparture + int(rng.NormFloat64()*600), round(20 + rng.Float64()*40), round(25 + rng.Float64()*40),
				fraction(departure), fraction(realizedDeparture)}
			ds.Tours = append(ds.Tours, tour)
			if i == 0 {
				shadow := append([]any{"R-" + name}, tour[1:]...)
				ds.Tours = append(ds.Tours, shadow)
			}
		}
	}
	return ds
}

// Save writes both exports as workbooks and returns their paths.
func Save(outDir string, ds Dataset) (string, string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", "", err
	}
	toursPath := filepath.Join(outDir, "tours.xlsx")
	tasksPath := filepath.Join(outDir, "tasks.xlsx")
	if err := writeWorkbook(toursPath, ToursSheet, ds.Tours); err != nil {
		return "", "", err
	}
	if err := writeWorkbook(tasksPath, TasksSheet, ds.Tasks); err != nil {
		return "", "", err
	}
	return toursPath, tasksPath, nil
}

func writeWorkbook(path, sheet string, rows [][]any) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return f.SaveAs(path)
}

// excelDate is the spreadsheet serial of a calendar day.
func excelDate(day time.Time) int {
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(epoch).Hours() / 24)
}

// fraction is a time of day as a fraction of 24 hours, wrapped at midnight.
func fraction(sec int) float64 {
	return float64(sec%86400) / 86400
}

func retard(arrival, slotStart, slotEnd int) int {
	switch {
	case arrival > slotEnd:
		return arrival - slotEnd
	case arrival < slotStart:
		return arrival - slotStart
	}
	return 0
}

func round(v float64) float64 {
	return math.Round(v*10) / 10
}
