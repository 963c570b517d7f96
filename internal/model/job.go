package model

import "time"

// Job is a scraped job posting shown on the public job board.
type Job struct {
    ID         uint64
    Company    string    // company name
    Subject    string    // posting title
    URL        string    // link to the original posting
    Sector     string    // e.g. backend, frontend
    CreateDate time.Time // when the posting was published
    DeadLine   time.Time // application deadline
    Career     int       // required years of experience
}
