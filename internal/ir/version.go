package ir

// EngineVersion is the patchstore version reported by the CLI.
const EngineVersion = "0.1.0"
