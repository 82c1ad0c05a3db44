package worker

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/freddie-moore/scriptTok/batch"
	"github.com/freddie-moore/scriptTok/download"
	"github.com/freddie-moore/scriptTok/generate"
	"github.com/freddie-moore/scriptTok/jobs"
	"github.com/freddie-moore/scriptTok/models"
	"github.com/freddie-moore/scriptTok/pipeline"
	"github.com/freddie-moore/scriptTok/scrape"
	"github.com/freddie-moore/scriptTok/tasks"
	"github.com/freddie-moore/scriptTok/transcribe"
)

// HandleScriptGeneration processes tasks from QueueScriptGenerate: it runs
// the full scrape -> transcribe -> generate pipeline for one job, publishing
// a stage snapshot at each transition.
func (p *Processor) HandleScriptGeneration(ctx context.Context, payload string) error {
	var task tasks.ScriptTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Processing script job %s for @%s", task.JobID, task.ProfileName)
	job, err := p.Store.Get(ctx, task.JobID)
	if err != nil {
		// The snapshot may have expired between submit and pickup; nothing
		// to report against, so drop the task.
		log.Printf("Job %s not found in store: %v", task.JobID, err)
		return nil
	}
	if job.Terminal() {
		log.Printf("Job %s is already terminal (%s), skipping", job.ID, job.Stage)
		return nil
	}

	orchestrator, err := p.newPipeline(task.Credentials, func(stage jobs.Stage, status string) {
		next, aerr := job.Advance(stage, status)
		if aerr != nil {
			log.Printf("Job %s stage update rejected: %v", job.ID, aerr)
			return
		}
		job = next
		if serr := p.Store.Save(ctx, job); serr != nil {
			log.Printf("Failed to save job %s snapshot: %v", job.ID, serr)
		}
	})
	if err != nil {
		p.failJob(ctx, &job, err.Error())
		return err
	}

	script, err := orchestrator.Run(ctx, task.ProfileName, task.Topic)
	if err != nil {
		p.failJob(ctx, &job, err.Error())
		return err
	}

	done, err := job.Succeed(script)
	if err != nil {
		log.Printf("Job %s could not be marked successful: %v", job.ID, err)
		return err
	}
	job = done
	if err := p.Store.Save(ctx, job); err != nil {
		log.Printf("Failed to save terminal snapshot for job %s: %v", job.ID, err)
		return err
	}
	log.Printf("Job %s complete, script is %d bytes", job.ID, len(script))

	p.archiveScript(job)
	return nil
}

// buildOrchestrator assembles the pipeline collaborators for one job,
// falling back to environment configuration where the task carries no
// credentials.
func (p *Processor) buildOrchestrator(creds tasks.Credentials, notify pipeline.Notifier) (*pipeline.Orchestrator, error) {
	apifyToken := creds.ApifyToken
	if apifyToken == "" {
		apifyToken = os.Getenv("APIFY_API_TOKEN")
	}
	openAIKey := creds.OpenAIKey
	if openAIKey == "" {
		openAIKey = os.Getenv("OPENAI_API_KEY")
	}

	scraper, err := scrape.NewApifyScraper(apifyToken)
	if err != nil {
		return nil, err
	}
	generator, err := generate.NewClient(openAIKey, os.Getenv("SYSTEM_PROMPT_PATH"))
	if err != nil {
		return nil, err
	}

	model := os.Getenv("WHISPER_MODEL")
	runner := batch.NewRunner(func() (batch.UnitExecutor, error) {
		transcriber, err := transcribe.NewWhisperTranscriber(model)
		if err != nil {
			return nil, err
		}
		return batch.NewExecutor(download.NewYtDlpDownloader(), transcriber), nil
	})

	return pipeline.New(scraper, runner, generator, pipeline.Options{
		Notify: notify,
	}), nil
}

// failJob writes the terminal FAILURE snapshot. Unexpected errors never
// crash the worker loop; they end the job instead.
func (p *Processor) failJob(ctx context.Context, job *jobs.Job, message string) {
	failed, err := job.Fail(message)
	if err != nil {
		log.Printf("Job %s could not be marked failed: %v", job.ID, err)
		return
	}
	*job = failed
	if err := p.Store.Save(ctx, *job); err != nil {
		log.Printf("Failed to save failure snapshot for job %s: %v", job.ID, err)
	}
	log.Printf("Job %s failed: %s", job.ID, message)
}

// archiveScript persists a completed script to Postgres. Archival is best
// effort; the job already succeeded.
func (p *Processor) archiveScript(job jobs.Job) {
	if p.DB == nil {
		return
	}
	record := models.ScriptRecord{
		JobID:       job.ID,
		ProfileName: job.ProfileName,
		Topic:       job.Topic,
		Script:      job.Result,
	}
	if err := p.DB.Where(models.ScriptRecord{JobID: job.ID}).FirstOrCreate(&record).Error; err != nil {
		log.Printf("Failed to archive script for job %s: %v", job.ID, err)
		return
	}
	log.Printf("Archived script for job %s", job.ID)
}
