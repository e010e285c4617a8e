package config

const (
	defaultThreshold              = 100
	defaultNotifyThreshold        = 50
	defaultLogFile                = "enum_guardian_log.txt"
	defaultLockListFile           = "lock_list.json"
	defaultMaintenanceStateFile   = "last_comdb_cleaned.log"
	defaultFailureJournalDir      = "failed_cleanup"
	defaultRunLockFile            = "enumguard.lock"
	defaultFatalDir               = "crash"
	defaultScanMode               = ModeManual
	defaultScanTime               = "00:00"
	defaultScanToleranceSeconds   = 300
	defaultLogLevel               = "info"
	defaultLogFormat              = "auto"
	defaultConfigFileName         = "config.json"
	configEnvVar                  = "ENUMGUARD_CONFIG"
	defaultJournalRetentionInDays = 0
)

// Scheduler modes accepted in scan_strategy.mode.
const (
	ModeManual    = "manual"
	ModeDaily     = "daily"
	ModeWeekly    = "weekly"
	ModeScheduled = "scheduled"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Threshold:              defaultThreshold,
		DefaultNotifyThreshold: defaultNotifyThreshold,
		LogFile:                defaultLogFile,
		ScanStrategy: ScanStrategy{
			Enabled:   false,
			Mode:      defaultScanMode,
			Days:      []string{},
			Time:      defaultScanTime,
			Tolerance: defaultScanToleranceSeconds,
		},
		MonitoredDevices:     []MonitoredDevice{},
		LockListFile:         defaultLockListFile,
		MaintenanceStateFile: defaultMaintenanceStateFile,
		FailureJournalDir:    defaultFailureJournalDir,
		RunLockFile:          defaultRunLockFile,
		FatalDir:             defaultFatalDir,
		JournalRetentionDays: defaultJournalRetentionInDays,
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

// SafeDefault is substituted for a document that cannot be used. The
// scheduler is disabled so an unattended invocation does nothing.
func SafeDefault() Config {
	cfg := Default()
	cfg.ScanStrategy.Enabled = false
	cfg.ScanStrategy.Mode = ModeManual
	cfg.Degraded = true
	return cfg
}
