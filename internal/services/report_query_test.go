package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cleancity/cleancity-be/internal/models"
)

func TestBuildReportQueryEmptyFilter(t *testing.T) {
	where, args := buildReportQuery(models.ReportFilter{})
	require.Empty(t, where)
	require.Empty(t, args)
}

func TestBuildReportQueryAllIsNoFilter(t *testing.T) {
	where, args := buildReportQuery(models.ReportFilter{Category: "all", Status: "all"})
	require.Empty(t, where)
	require.Empty(t, args)
}

func TestBuildReportQueryCombined(t *testing.T) {
	where, args := buildReportQuery(models.ReportFilter{
		Category: "waste",
		Status:   "pending",
		Search:   "Pothole",
	})

	require.Contains(t, where, "r.category = ?")
	require.Contains(t, where, "r.status = ?")
	require.Contains(t, where, "LOWER(r.title) LIKE ?")
	require.Contains(t, where, "LOWER(r.description) LIKE ?")
	require.Contains(t, where, "LOWER(r.location) LIKE ?")
	require.Equal(t, []interface{}{"waste", "pending", "%pothole%", "%pothole%", "%pothole%"}, args)
}

func TestBuildReportQueryEscapesLikeWildcards(t *testing.T) {
	_, args := buildReportQuery(models.ReportFilter{Search: `100%_done\`})
	require.Len(t, args, 3)
	require.Equal(t, `%100\%\_done\\%`, args[0])
}
