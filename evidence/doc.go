// Package evidence provides the evidence source adapters used by the
// scout stages: ClinicalTrials.gov for trial registrations, PubMed and
// Europe PMC for literature. Adapters fail with typed errors
// (rate-limited, not-found, transient) so the node-local retry policy
// can distinguish them; the engine never sees a raw HTTP error.
package evidence
