package config

// mergeConfigs merges override configuration into base. Scalars in override
// win when set; lists replace rather than append so a project can shrink the
// global target set or fallback list.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}
	if override.Registry != "" {
		result.Registry = override.Registry
	}
	if len(override.Targets) > 0 {
		result.Targets = override.Targets
	}
	if len(override.Only) > 0 {
		result.Only = override.Only
	}
	if override.Workers != 0 {
		result.Workers = override.Workers
	}

	result.Capture = mergeCapture(result.Capture, override.Capture)
	result.Signatures = mergeSignatures(result.Signatures, override.Signatures)
	result.Recovery = mergeRecovery(result.Recovery, override.Recovery)

	if override.Verify.Timeout != 0 {
		result.Verify.Timeout = override.Verify.Timeout
	}

	if override.Reports.Dir != "" {
		result.Reports.Dir = override.Reports.Dir
	}
	if override.Reports.History != nil {
		result.Reports.History = override.Reports.History
	}

	if override.Notify.Timeout != 0 {
		result.Notify.Timeout = override.Notify.Timeout
	}
	if len(override.Notify.Channels) > 0 {
		result.Notify.Channels = override.Notify.Channels
	}

	if override.Oracle.Enabled() {
		result.Oracle.Command = override.Oracle.Command
		result.Oracle.URL = override.Oracle.URL
	}
	if override.Oracle.Timeout != 0 {
		result.Oracle.Timeout = override.Oracle.Timeout
	}

	// Merge extensions
	if override.Extensions != nil {
		merged := make(map[string]interface{}, len(result.Extensions)+len(override.Extensions))
		for key, value := range result.Extensions {
			merged[key] = value
		}
		for key, value := range override.Extensions {
			// If both base and override have the same extension key, merge them
			if baseMap, ok := merged[key].(map[string]interface{}); ok {
				if overrideMap, ok := value.(map[string]interface{}); ok {
					mergedMap := make(map[string]interface{}, len(baseMap)+len(overrideMap))
					for k, v := range baseMap {
						mergedMap[k] = v
					}
					for k, v := range overrideMap {
						mergedMap[k] = v
					}
					merged[key] = mergedMap
					continue
				}
			}
			merged[key] = value
		}
		result.Extensions = merged
	}

	return &result
}

func mergeCapture(base, override CaptureConfig) CaptureConfig {
	result := base
	if override.Lines != 0 {
		result.Lines = override.Lines
	}
	if override.Timeout != 0 {
		result.Timeout = override.Timeout
	}
	return result
}

func mergeSignatures(base, override SignaturesConfig) SignaturesConfig {
	result := base
	if len(override.Custom) > 0 {
		result.Custom = override.Custom
	}
	if override.ReplaceDefaults {
		result.ReplaceDefaults = true
	}
	return result
}

func mergeRecovery(base, override RecoveryConfig) RecoveryConfig {
	result := base
	if override.MaxAttempts != 0 {
		result.MaxAttempts = override.MaxAttempts
	}
	if override.SettleDelay != 0 {
		result.SettleDelay = override.SettleDelay
	}
	if override.AttemptTimeout != 0 {
		result.AttemptTimeout = override.AttemptTimeout
	}
	if len(override.Fallbacks) > 0 {
		result.Fallbacks = override.Fallbacks
	}
	return result
}
