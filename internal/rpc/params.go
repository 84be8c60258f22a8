package rpc

// Param names one session.set<Param> method.
type Param string

const (
	ParamTitle            Param = "Title"
	ParamLongDescription  Param = "LongDescription"
	ParamShortDescription Param = "ShortDescription"
	ParamExternalURLs     Param = "ExternalURLs"
	ParamStartFrame       Param = "StartFrame"
	ParamEndFrame         Param = "EndFrame"
	ParamSplit            Param = "Split"
	ParamMemoryLimit      Param = "MemoryLimit"
	ParamXSize            Param = "XSize"
	ParamYSize            Param = "YSize"
	ParamFrameRate        Param = "FrameRate"
	ParamFrameFormat      Param = "FrameFormat"
	ParamRenderer         Param = "Renderer"
	ParamSamples          Param = "Samples"
	ParamSubSamples       Param = "SubSamples"
	ParamReplication      Param = "Replication"
	ParamStitcher         Param = "Stitcher"
	ParamOutputLicense    Param = "OutputLicense"
	ParamInputLicense     Param = "InputLicense"
	ParamPrimaryInputFile Param = "PrimaryInputFile"
)

// Method is the XML-RPC method name for p.
func (p Param) Method() string {
	return "session.set" + string(p)
}
