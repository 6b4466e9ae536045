package jobs

import (
	"context"
	"log/slog"

	classRepo "anoa.com/studentmanager/internal/modules/class/repository"
)

const ClassCounterJobName = "class-counter-reconcile"

// ClassCounterJob repairs class head counts that drifted from the students
// table, for example after manual database edits.
type ClassCounterJob struct {
	classes  classRepo.ClassRepository
	schedule string
	logger   *slog.Logger
}

func NewClassCounterJob(classes classRepo.ClassRepository, schedule string, logger *slog.Logger) *ClassCounterJob {
	return &ClassCounterJob{
		classes:  classes,
		schedule: schedule,
		logger:   logger,
	}
}

func (j *ClassCounterJob) Name() string { return ClassCounterJobName }

func (j *ClassCounterJob) Schedule() string { return j.schedule }

func (j *ClassCounterJob) Run(ctx context.Context) error {
	fixes, err := j.classes.ReconcileCounts(ctx)
	if err != nil {
		return err
	}
	for _, fix := range fixes {
		j.logger.Warn("class counter corrected",
			"class_id", fix.ClassID,
			"class", fix.Name,
			"stored", fix.Stored,
			"actual", fix.Actual,
		)
	}
	return nil
}
