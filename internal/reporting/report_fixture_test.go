package reporting

import (
	"time"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/models"
)

func newTestReport() *models.Report {
	return &models.Report{
		Spec:      models.SpecIdentity{DataStage: "source_data", Product: "radar_precipitation", Version: "0.2.0"},
		Dataset:   "s3://bucket/radar.zarr",
		Timestamp: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Root: models.NewGroupNode("", "", "", []*models.ReportNode{
			models.NewGroupNode("coordinates", "coordinates", "Coordinates", []*models.ReportNode{
				models.NewLeafNode("time", "coordinates.time", "Time coordinate", models.VerdictPass, ""),
				models.NewLeafNode("x", "coordinates.x", "X coordinate", models.VerdictPass, ""),
			}),
			models.NewGroupNode("temporal", "temporal", "Temporal requirements", []*models.ReportNode{
				models.NewLeafNode("ordering", "temporal.ordering", "Time ordering", models.VerdictPass, ""),
				models.NewLeafNode("missing_times", "temporal.missing_times", "Declared missing times", models.VerdictFail,
					`inferred missing timestamps are not listed in "missing_times": 2021-05-15T00:00:00Z`),
				models.NewLeafNode("timestep", "temporal.timestep", "Timestep regularity", models.VerdictSkipped,
					"prerequisite temporal.ordering did not pass"),
			}),
			models.NewLeafNode("crs", "crs", "CRS | definition", models.VerdictError, "chunk 0 is corrupt"),
		}),
	}
}

func newPassingReport() *models.Report {
	return &models.Report{
		Spec:      models.SpecIdentity{DataStage: "source_data", Product: "radar_precipitation", Version: "0.2.0"},
		Dataset:   "local.zarr",
		Timestamp: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Root: models.NewGroupNode("", "", "", []*models.ReportNode{
			models.NewLeafNode("license", "license", "License", models.VerdictPass, ""),
		}),
	}
}
